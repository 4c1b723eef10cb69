// Package etx implements the ETX (Expected Transmission Count) routing
// protocol: a scalar metric shared periodically toward the sink,
// refined locally by a running mean of probed link delays.
package etx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kprusa/wsnsim/internal/routing"
	"github.com/kprusa/wsnsim/internal/scheduler"
	"github.com/kprusa/wsnsim/internal/topology"
	"github.com/kprusa/wsnsim/internal/wire"
)

// sinkETX is the sentinel the sink advertises; everything downstream of
// it accumulates additively, so it must be the additive identity.
const sinkETX = 0

// sensingETX is the "undiscovered" sentinel a sensing node starts at,
// large enough that any real route beats it.
const sensingETX = 999999

const (
	sharePeriodSecs = 3600.0 // how often a node advertises its ETX
	probePacketRate = 1.0    // per neighbour per hour
	dummyPayload    = "ETX+dummy"
)

// neighbour tracks one neighbour's advertised etx and the locally probed
// link samples used to refine it.
type neighbour struct {
	etx     float64
	samples []float64
}

func (n neighbour) totalETX() float64 {
	if len(n.samples) == 0 {
		return n.etx
	}
	var sum float64
	for _, s := range n.samples {
		sum += s
	}
	return n.etx + sum/float64(len(n.samples))
}

// Protocol is the ETX implementation of routing.Protocol.
type Protocol struct {
	host routing.Host
	role routing.Role
	logs *routing.Logs

	etx        float64
	neighbours map[topology.Address]*neighbour
	order      []topology.Address
	probeNext  int
}

// New constructs an ETX protocol instance for host, playing role, with
// sends and receives recorded into logs.
func New(host routing.Host, role routing.Role, logs *routing.Logs) *Protocol {
	e := float64(sensingETX)
	if role == routing.SinkRole {
		e = sinkETX
	}
	return &Protocol{
		host:       host,
		role:       role,
		logs:       logs,
		etx:        e,
		neighbours: make(map[topology.Address]*neighbour),
	}
}

// Setup broadcasts the founding Hello and spawns the periodic tasks every
// role runs: ETX-share for everyone, link-probing for sensing nodes only.
func (pr *Protocol) Setup(p *scheduler.Process) {
	pr.AddToOutputQueue(p, "Hello", routing.BroadcastKeyword)

	pr.host.Sched.Spawn(pr.shareLoop)
	if pr.role == routing.SensingRole {
		pr.host.Sched.Spawn(pr.probeLoop)
	}
}

// shareLoop recomputes own.etx (sensing only) from the best known route
// and re-broadcasts it every sharePeriod.
func (pr *Protocol) shareLoop(p *scheduler.Process) {
	for {
		p.Wait(p.Timeout(sharePeriodSecs))
		if pr.role == routing.SensingRole {
			pr.etx = pr.minTotalETX()
		}
		pr.AddToOutputQueue(p, fmt.Sprintf("ETX+%g", pr.etx), routing.BroadcastKeyword)
	}
}

// probeLoop rotates through known neighbours, sending each a dummy probe
// at the configured per-neighbour rate and recording the observed
// one-way delay as a link sample.
func (pr *Protocol) probeLoop(p *scheduler.Process) {
	for {
		n := len(pr.order)
		if n == 0 {
			p.Wait(p.Timeout(sharePeriodSecs))
			continue
		}
		interval := 3600.0 / (probePacketRate * float64(n))
		p.Wait(p.Timeout(interval))

		n = len(pr.order)
		if n == 0 {
			continue
		}
		target := pr.order[pr.probeNext%n]
		pr.probeNext++

		delay := pr.host.Send(p, pr.logs, target, dummyPayload)
		if nb, ok := pr.neighbours[target]; ok {
			nb.samples = append(nb.samples, delay)
		}
	}
}

// ReceivePacket handles one wire string off the medium: Hello discovers
// neighbours (replying in kind), ETX shares update a neighbour's
// advertised metric, and everything else is application data a sensing
// node forwards on toward the sink.
func (pr *Protocol) ReceivePacket(raw string) {
	now := pr.host.Sched.Now()
	pr.logs.Received.Append(now, raw)

	pkt, err := wire.Parse(raw)
	if err != nil {
		return
	}

	switch {
	case pkt.Payload == "Hello":
		pr.handleHello(pkt.Origin)
	case pkt.Payload == dummyPayload:
		// Probe traffic only exists to be timed by the sender; the
		// receiver has nothing further to do with it.
	case strings.HasPrefix(pkt.Payload, "ETX+"):
		pr.handleETXShare(pkt.Origin, strings.TrimPrefix(pkt.Payload, "ETX+"))
	default:
		if pr.role == routing.SensingRole {
			pr.host.Sched.Spawn(func(p *scheduler.Process) {
				pr.AddToOutputQueue(p, pkt.Payload, routing.SinkKeyword)
			})
		}
	}
}

func (pr *Protocol) handleHello(origin topology.Address) {
	if _, known := pr.neighbours[origin]; known {
		return
	}
	pr.neighbours[origin] = &neighbour{etx: sensingETX}
	pr.order = append(pr.order, origin)

	pr.host.Sched.Spawn(func(p *scheduler.Process) {
		pr.AddToOutputQueue(p, "Hello", routing.BroadcastKeyword)
	})
}

func (pr *Protocol) handleETXShare(origin topology.Address, raw string) {
	x, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return
	}
	nb, ok := pr.neighbours[origin]
	if !ok {
		nb = &neighbour{}
		pr.neighbours[origin] = nb
		pr.order = append(pr.order, origin)
	}
	nb.etx = x
}

// minTotalETX returns the best (lowest) total_etx among all neighbours,
// or sensingETX if none are known yet.
func (pr *Protocol) minTotalETX() float64 {
	best := float64(sensingETX)
	for _, nb := range pr.neighbours {
		if t := nb.totalETX(); t < best {
			best = t
		}
	}
	return best
}

// AddToOutputQueue resolves destination to a next hop and hands the
// packet to the host for sending, dropping sink-ward sends attempted
// before any neighbour is known.
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

// selectForwarder picks uniformly among the neighbours whose total_etx is
// within float tolerance of the minimum.
func (pr *Protocol) selectForwarder() (topology.Address, error) {
	const tolerance = 1e-9

	var candidates []topology.Address
	best := float64(sensingETX)
	for _, addr := range pr.order {
		nb := pr.neighbours[addr]
		if t := nb.totalETX(); t < best {
			best = t
		}
	}
	for _, addr := range pr.order {
		nb := pr.neighbours[addr]
		if nb.totalETX() <= best+tolerance {
			candidates = append(candidates, addr)
		}
	}
	if len(candidates) == 0 {
		return "", routing.ErrNoNeighboursYet{}
	}
	return routing.PickUniform(pr.host.Sched.Rand(), candidates), nil
}
