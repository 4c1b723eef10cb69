package topology

import "fmt"

// Network is the graph of a simulation run: one sink, one or more sensing
// nodes, and the links between them. Construction here is intentionally
// thin: the node/link/network constructors are trivial external
// collaborators, not part of the core under test.
type Network struct {
	Nodes    map[Address]Node
	Links    []Link
	Registry *LinkRegistry
	Sink     Address
}

// ErrNoSink is returned when a network has no Sink-kind node, or more than
// one, both of which are configuration errors.
type ErrNoSink struct {
	Count int
}

func (e ErrNoSink) Error() string {
	return fmt.Sprintf("network must have exactly one sink node, found %d", e.Count)
}

// NewNetwork validates and assembles a Network from its node and link list.
func NewNetwork(nodes []Node, links []Link) (*Network, error) {
	byAddr := make(map[Address]Node, len(nodes))
	var sink Address
	sinkCount := 0
	for _, n := range nodes {
		byAddr[n.Address] = n
		if n.Kind == Sink {
			sink = n.Address
			sinkCount++
		}
	}
	if sinkCount != 1 {
		return nil, ErrNoSink{Count: sinkCount}
	}
	return &Network{
		Nodes:    byAddr,
		Links:    links,
		Registry: NewLinkRegistry(links),
		Sink:     sink,
	}, nil
}
