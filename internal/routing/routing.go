// Package routing defines the contract shared by the three routing
// protocols (Min-Hop, ETX, DAP) and the next-hop resolution rules common
// to all of them.
package routing

import (
	"fmt"
	"math/rand"

	"github.com/kprusa/wsnsim/internal/medium"
	"github.com/kprusa/wsnsim/internal/scheduler"
	"github.com/kprusa/wsnsim/internal/topology"
	"github.com/kprusa/wsnsim/internal/wire"
)

// Host is the slice of a Node that every protocol implementation needs:
// its own address, a way to reach the medium, and the per-node
// transmitter queue that serializes outgoing sends.
// The code that wires a node (simulation.New, or a test) constructs the
// Host and passes it to the protocol; protocols never construct one
// themselves, which is how the node<->protocol cycle stays one-directional.
type Host struct {
	Self        topology.Address
	Sched       *scheduler.Scheduler
	Medium      *medium.Medium
	Transmitter *scheduler.Resource
}

// ErrNoNeighboursYet is a non-fatal, expected transient: a protocol tried
// to select a sink-ward forwarder before discovering any neighbour at all.
// Sensing nodes must never forward toward "sink" before at least one
// neighbour exists; queue-and-retry or drop are both acceptable, and
// this implementation drops the packet rather than treating it as the
// fatal "no route" topology error.
type ErrNoNeighboursYet struct{}

func (ErrNoNeighboursYet) Error() string {
	return "routing: no neighbours discovered yet"
}

// Send acquires the host's transmitter, formats a wire packet, hands it to
// the medium, and logs the three send-side log entries (output_queue_messages
// before acquiring, message_sending once held, message_sent once handed
// off). It panics on a fatal medium error (topology.ErrNoLink,
// topology.ErrNegativeDelay). It returns the delay the medium scheduled
// the delivery for (0 for a broadcast), which link-probing tasks use
// directly as the sampled one-way link delay.
func (h *Host) Send(p *scheduler.Process, logs *Logs, nextHop topology.Address, payload string) float64 {
	raw := wire.Format(h.Self, nextHop, payload)
	logs.OutputQueue.Append(p.Sched().Now(), raw)

	p.Wait(h.Transmitter.Request())
	defer h.Transmitter.Release()

	logs.Sending.Append(p.Sched().Now(), raw)
	delay, err := h.Medium.SendDataToMedium(raw)
	if err != nil {
		panic(err)
	}
	logs.Sent.Append(p.Sched().Now(), raw)
	return delay
}

// Role distinguishes the sink variant of a protocol from the sensing
// variant. Each protocol implementation is parameterized by Role rather
// than split into an inheritance hierarchy.
type Role int

const (
	// SinkRole runs the protocol's sink-side setup (it is the flood
	// origin / metric root and never itself forwards toward "sink").
	SinkRole Role = iota
	// SensingRole runs the protocol's sensing-side setup and emits
	// periodic measurements toward the sink.
	SensingRole
)

func (r Role) String() string {
	if r == SinkRole {
		return "sink"
	}
	return "sensing"
}

// SinkKeyword and BroadcastKeyword are the two destination names the
// common next-hop rule treats specially, distinct from topology.Broadcast
// (the wire-level empty-address destination).
const (
	SinkKeyword      = topology.Address("sink")
	BroadcastKeyword = topology.Address("broadcast")
)

// Protocol is the contract every routing protocol implementation
// satisfies.
type Protocol interface {
	// Setup runs the protocol's warm-up as a scheduler process: hello
	// broadcast, periodic share/probe tasks.
	Setup(p *scheduler.Process)

	// ReceivePacket consumes a wire string received off the medium. It
	// may enqueue further packets (spawned as new processes, never
	// awaited inline).
	ReceivePacket(raw string)

	// AddToOutputQueue resolves a next hop for destination and, once one
	// is found, formats a wire packet, acquires the node's transmitter,
	// and hands the packet to the medium.
	AddToOutputQueue(p *scheduler.Process, payload string, destination topology.Address)
}

// ErrNoRoute is a fatal topology error: no next hop could be resolved for
// a destination.
type ErrNoRoute struct {
	Destination topology.Address
}

func (e ErrNoRoute) Error() string {
	return fmt.Sprintf("routing: no route to %q", e.Destination)
}

// ResolveNextHop implements the next-hop rules common to all three
// protocols. selectForwarder is consulted only when destination is the
// sink keyword and is expected to run the protocol-specific forwarder
// selection over its neighbour table.
func ResolveNextHop(
	destination topology.Address,
	isNeighbour func(topology.Address) bool,
	selectForwarder func() (topology.Address, error),
) (topology.Address, error) {
	if destination == BroadcastKeyword || destination == topology.Broadcast {
		return topology.Broadcast, nil
	}
	if isNeighbour(destination) {
		return destination, nil
	}
	if destination == SinkKeyword {
		return selectForwarder()
	}
	return "", ErrNoRoute{Destination: destination}
}

// PickUniform chooses uniformly at random among candidates using rng,
// giving the deterministic tie-break forwarder selection requires.
// candidates must be non-empty.
func PickUniform(rng *rand.Rand, candidates []topology.Address) topology.Address {
	return candidates[rng.Intn(len(candidates))]
}
