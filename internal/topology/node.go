// Package topology holds the static data model of a simulated network:
// addresses, nodes, links, and the link registry the medium and routing
// protocols use to look up neighbours. Construction is validated but
// otherwise trivial by design; the node/link/network constructors
// themselves are out of scope for the core.
package topology

import "fmt"

// Address is an opaque node identifier. The empty Address is reserved for
// broadcast destinations.
type Address string

// Broadcast is the wire destination that means "every neighbour."
const Broadcast Address = ""

// Kind distinguishes the sink from sensing nodes.
type Kind int

const (
	// Sink is the unique terminal node sensor data is routed toward.
	Sink Kind = iota
	// Sensing nodes periodically emit measurements toward the sink.
	Sensing
)

func (k Kind) String() string {
	switch k {
	case Sink:
		return "sink"
	case Sensing:
		return "sensing"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is a static topology entity. Two Nodes are equal iff their
// addresses are equal.
type Node struct {
	Address Address
	Name    string
	Kind    Kind

	// SensingPeriod only applies to Sensing nodes. SensingOffset is every
	// node's wakeup offset, waited out before protocol setup.
	SensingPeriod float64
	SensingOffset float64
}

// Equal reports whether n and other share the same address.
func (n Node) Equal(other Node) bool {
	return n.Address == other.Address
}
