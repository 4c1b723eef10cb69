// Package wire implements the simulator's on-wire packet grammar: a
// positional, unescaped "<origin>,<destination>,<payload>" string. The
// grammar is kept in one place deliberately, so a future length-prefixed
// or tagged-union codec can replace it without touching the medium or
// routing protocols, which only see Packet values.
package wire

import (
	"fmt"
	"strings"

	"github.com/kprusa/wsnsim/internal/topology"
)

// Packet is the parsed form of a wire string.
type Packet struct {
	Origin      topology.Address
	Destination topology.Address
	Payload     string
}

// ErrMalformed reports a wire string that does not split into exactly the
// three comma-separated fields the grammar requires.
type ErrMalformed struct {
	Raw string
}

func (e ErrMalformed) Error() string {
	return fmt.Sprintf("wire: malformed packet %q: want \"<origin>,<destination>,<payload>\"", e.Raw)
}

// Format renders origin, destination, and payload as a wire string.
// Payload is not escaped:
// callers must ensure addresses never contain commas.
func Format(origin, destination topology.Address, payload string) string {
	return fmt.Sprintf("%s,%s,%s", origin, destination, payload)
}

// String renders p as its wire string.
func (p Packet) String() string {
	return Format(p.Origin, p.Destination, p.Payload)
}

// IsBroadcast reports whether p is addressed to every neighbour.
func (p Packet) IsBroadcast() bool {
	return p.Destination == topology.Broadcast
}

// Parse splits a raw wire string into its three fields. The payload field
// may itself contain '/', '+', or '|': only the first two commas are
// significant.
func Parse(raw string) (Packet, error) {
	origin, rest, ok := strings.Cut(raw, ",")
	if !ok {
		return Packet{}, ErrMalformed{Raw: raw}
	}
	destination, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Packet{}, ErrMalformed{Raw: raw}
	}
	return Packet{
		Origin:      topology.Address(origin),
		Destination: topology.Address(destination),
		Payload:     payload,
	}, nil
}
