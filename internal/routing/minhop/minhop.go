// Package minhop implements the Min-Hop routing protocol: a hop-count
// flood from the sink, with next-hop selection that picks uniformly
// among the neighbours reporting the lowest hop count toward the sink.
package minhop

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kprusa/wsnsim/internal/routing"
	"github.com/kprusa/wsnsim/internal/scheduler"
	"github.com/kprusa/wsnsim/internal/topology"
	"github.com/kprusa/wsnsim/internal/wire"
)

// unreachable stands in for the sink's notion of an as-yet-undiscovered
// hop count; any real flood converges to something far smaller.
const unreachable = math.MaxInt32

// Protocol is the Min-Hop implementation of routing.Protocol. It is not
// safe for concurrent use; every method is expected to run on the
// scheduler's single logical thread of control.
type Protocol struct {
	host routing.Host
	role routing.Role
	logs *routing.Logs

	hopCount   int
	neighbours map[topology.Address]int // address -> its hop count, as last advertised
	order      []topology.Address        // discovery order, so forwarder selection is deterministic
}

// New constructs a Min-Hop protocol instance for host, playing role, with
// sends and receives recorded into logs.
func New(host routing.Host, role routing.Role, logs *routing.Logs) *Protocol {
	hc := unreachable
	if role == routing.SinkRole {
		hc = 0
	}
	return &Protocol{
		host:       host,
		role:       role,
		logs:       logs,
		hopCount:   hc,
		neighbours: make(map[topology.Address]int),
	}
}

// Setup broadcasts the sink's founding Hello+0; sensing nodes do nothing
// until a Hello arrives.
func (pr *Protocol) Setup(p *scheduler.Process) {
	if pr.role != routing.SinkRole {
		return
	}
	pr.AddToOutputQueue(p, helloPayload(pr.hopCount), routing.BroadcastKeyword)
}

// ReceivePacket handles one wire string off the medium: Hello floods
// update the neighbour table and own hop count (rebroadcasting on
// discovery or improvement); anything else is application data, which a
// sensing node forwards on toward the sink.
func (pr *Protocol) ReceivePacket(raw string) {
	now := pr.host.Sched.Now()
	pr.logs.Received.Append(now, raw)

	pkt, err := wire.Parse(raw)
	if err != nil {
		return
	}

	if hop, ok := parseHello(pkt.Payload); ok {
		pr.handleHello(pkt.Origin, hop)
		return
	}

	if pr.role == routing.SensingRole {
		pr.host.Sched.Spawn(func(p *scheduler.Process) {
			pr.AddToOutputQueue(p, pkt.Payload, routing.SinkKeyword)
		})
	}
}

func (pr *Protocol) handleHello(origin topology.Address, hop int) {
	prev, known := pr.neighbours[origin]
	pr.neighbours[origin] = hop

	if !known {
		pr.order = append(pr.order, origin)
		pr.updateHopCount(hop + 1)
		pr.rebroadcastHello()
		return
	}
	if prev == hop {
		return
	}
	if pr.updateHopCount(hop + 1) {
		pr.rebroadcastHello()
	}
}

// updateHopCount adopts candidate as the node's own hop count if it is an
// improvement, reporting whether it changed anything.
func (pr *Protocol) updateHopCount(candidate int) bool {
	if candidate < pr.hopCount {
		pr.hopCount = candidate
		return true
	}
	return false
}

func (pr *Protocol) rebroadcastHello() {
	pr.host.Sched.Spawn(func(p *scheduler.Process) {
		pr.AddToOutputQueue(p, helloPayload(pr.hopCount), routing.BroadcastKeyword)
	})
}

// AddToOutputQueue resolves destination to a next hop and hands the
// packet to the host for sending. A sink-ward send attempted before any
// neighbour has been discovered is dropped, per routing.ErrNoNeighboursYet.
func (pr *Protocol) AddToOutputQueue(p *scheduler.Process, payload string, destination topology.Address) {
	nextHop, err := routing.ResolveNextHop(destination, pr.isNeighbour, pr.selectForwarder)
	if err != nil {
		var noNeighbours routing.ErrNoNeighboursYet
		if errors.As(err, &noNeighbours) {
			return
		}
		panic(err)
	}
	pr.host.Send(p, pr.logs, nextHop, payload)
}

func (pr *Protocol) isNeighbour(addr topology.Address) bool {
	_, ok := pr.neighbours[addr]
	return ok
}

// selectForwarder picks uniformly among the neighbours advertising the
// lowest hop count, which is always hopCount-1 once a route exists.
func (pr *Protocol) selectForwarder() (topology.Address, error) {
	var candidates []topology.Address
	best := unreachable
	for _, addr := range pr.order {
		hop := pr.neighbours[addr]
		switch {
		case hop < best:
			best = hop
			candidates = []topology.Address{addr}
		case hop == best:
			candidates = append(candidates, addr)
		}
	}
	if len(candidates) == 0 {
		return "", routing.ErrNoNeighboursYet{}
	}
	return routing.PickUniform(pr.host.Sched.Rand(), candidates), nil
}

func helloPayload(hopCount int) string {
	return fmt.Sprintf("Hello+%d", hopCount)
}

func parseHello(payload string) (hopCount int, ok bool) {
	rest, found := strings.CutPrefix(payload, "Hello+")
	if !found {
		return 0, false
	}
	h, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return h, true
}
