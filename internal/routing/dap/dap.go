package dap

import (
	"errors"
	"strconv"
	"strings"

	"github.com/kprusa/wsnsim/internal/routing"
	"github.com/kprusa/wsnsim/internal/scheduler"
	"github.com/kprusa/wsnsim/internal/topology"
	"github.com/kprusa/wsnsim/internal/wire"
)

const (
	sharePeriodSecs = 3600.0 // how often a node advertises its DAP vector
	probePacketRate = 1.0    // per neighbour per hour
	dummyPayload    = "DAP+dummy"
)

// neighbour tracks one neighbour's advertised DAP vector, the locally
// probed link-delay PDF to it, and the derived dap-through-neighbour
// vector forwarder selection reads.
type neighbour struct {
	linkPDF             PDF
	dap                 Vector
	dapThroughNeighbour Vector
}

// Protocol is the DAP implementation of routing.Protocol. deadline scopes
// the metric at forwarding time.
type Protocol struct {
	host     routing.Host
	role     routing.Role
	logs     *routing.Logs
	deadline float64

	dap        Vector
	neighbours map[topology.Address]*neighbour
	order      []topology.Address
	probeNext  int
}

// New constructs a DAP protocol instance for host, playing role, scoped
// to deadline seconds, with sends and receives recorded into logs.
func New(host routing.Host, role routing.Role, deadline float64, logs *routing.Logs) *Protocol {
	d := Vector{}
	if role == routing.SinkRole {
		d = Ones()
	}
	return &Protocol{
		host:       host,
		role:       role,
		logs:       logs,
		deadline:   deadline,
		dap:        d,
		neighbours: make(map[topology.Address]*neighbour),
	}
}

// Setup broadcasts the founding Hello and spawns the periodic DAP-share
// and (sensing only) link-probing tasks, mirroring ETX's structure.
func (pr *Protocol) Setup(p *scheduler.Process) {
	pr.AddToOutputQueue(p, "Hello", routing.BroadcastKeyword)

	pr.host.Sched.Spawn(pr.shareLoop)
	if pr.role == routing.SensingRole {
		pr.host.Sched.Spawn(pr.probeLoop)
	}
}

// shareLoop recomputes own.dap (sensing only) as the bin-wise max across
// every neighbour's dap_through_neighbour, then re-broadcasts it.
func (pr *Protocol) shareLoop(p *scheduler.Process) {
	for {
		p.Wait(p.Timeout(sharePeriodSecs))
		if pr.role == routing.SensingRole {
			pr.dap = pr.bestDAP()
		}
		pr.AddToOutputQueue(p, Format(pr.dap), routing.BroadcastKeyword)
	}
}

func (pr *Protocol) bestDAP() Vector {
	var out Vector
	for _, nb := range pr.neighbours {
		for i, x := range nb.dapThroughNeighbour {
			if x > out[i] {
				out[i] = x
			}
		}
	}
	return out
}

// probeLoop rotates through known neighbours, sending each a dummy probe
// at the configured per-neighbour rate, folding the observed one-way
// delay into that neighbour's link-delay PDF, and re-deriving its
// dap-through-neighbour vector from the refined PDF.
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
			nb.linkPDF.AddSample(delay)
			nb.dapThroughNeighbour = Convolve(nb.linkPDF.Vector(), nb.dap)
		}
	}
}

// ReceivePacket handles one wire string off the medium: Hello discovers
// neighbours (replying in kind), a DAP share updates that neighbour's
// advertised vector and re-derives its dap-through-neighbour, and
// everything else is application data a sensing node forwards toward
// the sink.
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
		// Timed by the sender only; nothing further to do here.
	case strings.HasPrefix(pkt.Payload, "DAP+"):
		pr.handleDAPShare(pkt.Origin, strings.TrimPrefix(pkt.Payload, "DAP+"))
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
	pr.neighbours[origin] = &neighbour{}
	pr.order = append(pr.order, origin)

	pr.host.Sched.Spawn(func(p *scheduler.Process) {
		pr.AddToOutputQueue(p, "Hello", routing.BroadcastKeyword)
	})
}

func (pr *Protocol) handleDAPShare(origin topology.Address, encoded string) {
	v, err := Parse(encoded)
	if err != nil {
		return
	}
	nb, ok := pr.neighbours[origin]
	if !ok {
		nb = &neighbour{}
		pr.neighbours[origin] = nb
		pr.order = append(pr.order, origin)
	}
	nb.dap = v
	nb.dapThroughNeighbour = Convolve(nb.linkPDF.Vector(), nb.dap)
}

// AddToOutputQueue resolves destination to a next hop and hands the
// packet to the host for sending. A sink-ward send parses the shared
// "<src>/<m>/<t_tx>" application payload to recover the remaining
// time-to-deadline; anything that doesn't parse that way (Hello, DAP
// shares, probes) is treated as having the full deadline available.
func (pr *Protocol) AddToOutputQueue(p *scheduler.Process, payload string, destination topology.Address) {
	tau := pr.deadline
	if destination == routing.SinkKeyword {
		if tTx, ok := parseTxTimestamp(payload); ok {
			tau = pr.deadline - (pr.host.Sched.Now() - tTx)
		}
	}

	nextHop, err := routing.ResolveNextHop(destination, pr.isNeighbour, func() (topology.Address, error) {
		return pr.selectForwarder(tau)
	})
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

// selectForwarder picks uniformly among the neighbours maximizing
// dap_through_neighbour at the bin for tau. When tau <= 0 the deadline
// has already effectively passed (DAP = 0), but the source this is
// ported from still routes the packet somewhere, comparing neighbours at
// the last bin instead — this implementation faithfully preserves that
// behavior rather than introducing a drop path it never had.
func (pr *Protocol) selectForwarder(tau float64) (topology.Address, error) {
	i := NumBins - 1
	if tau > 0 {
		i = BinIndex(tau)
	}

	var candidates []topology.Address
	best := -1.0
	for _, addr := range pr.order {
		if v := pr.neighbours[addr].dapThroughNeighbour[i]; v > best {
			best = v
		}
	}
	for _, addr := range pr.order {
		if pr.neighbours[addr].dapThroughNeighbour[i] == best {
			candidates = append(candidates, addr)
		}
	}
	if len(candidates) == 0 {
		return "", routing.ErrNoNeighboursYet{}
	}
	return routing.PickUniform(pr.host.Sched.Rand(), candidates), nil
}

// parseTxTimestamp extracts t_tx from a "<src>/<m>/<t_tx>" application
// payload. It returns ok=false for anything else (the share/hello/probe
// payloads are filtered out before this is called).
func parseTxTimestamp(payload string) (float64, bool) {
	parts := strings.Split(payload, "/")
	if len(parts) != 3 {
		return 0, false
	}
	t, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, false
	}
	return t, true
}
