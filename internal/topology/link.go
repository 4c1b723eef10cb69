package topology

import "fmt"

// DelaySampler draws a fresh, non-negative delay (in virtual seconds) each
// time it is called. A sampler that returns a negative value is a fatal
// simulator error.
type DelaySampler func() float64

// Link is an undirected pair of node addresses with a per-call delay
// sampler. Links are immutable for the lifetime of a simulation run.
type Link struct {
	A, B  Address
	Delay DelaySampler
}

// ErrNegativeDelay is returned when a DelaySampler produces a negative
// value; this is a fatal, non-recoverable simulator error.
type ErrNegativeDelay struct {
	Link  Link
	Value float64
}

func (e ErrNegativeDelay) Error() string {
	return fmt.Sprintf("link %s<->%s: delay sampler returned negative value %g", e.Link.A, e.Link.B, e.Value)
}

// GetDestination returns the other endpoint of the link given one of its
// endpoints. It returns ErrNotEndpoint if origin is neither A nor B.
func (l Link) GetDestination(origin Address) (Address, error) {
	switch origin {
	case l.A:
		return l.B, nil
	case l.B:
		return l.A, nil
	default:
		return "", ErrNotEndpoint{Link: l, Address: origin}
	}
}

// Sample draws a delay from the link and validates it is non-negative.
func (l Link) Sample() (float64, error) {
	d := l.Delay()
	if d < 0 {
		return 0, ErrNegativeDelay{Link: l, Value: d}
	}
	return d, nil
}

// ErrNotEndpoint is returned when GetDestination is called with an address
// that is not one of the link's two endpoints.
type ErrNotEndpoint struct {
	Link    Link
	Address Address
}

func (e ErrNotEndpoint) Error() string {
	return fmt.Sprintf("address %s is not an endpoint of link %s<->%s", e.Address, e.Link.A, e.Link.B)
}
