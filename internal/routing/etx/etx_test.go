package etx

import (
	"testing"

	"github.com/kprusa/wsnsim/internal/medium"
	"github.com/kprusa/wsnsim/internal/routing"
	"github.com/kprusa/wsnsim/internal/scheduler"
	"github.com/kprusa/wsnsim/internal/topology"
)

func uniformDelay(lo, hi float64, rng func() float64) topology.DelaySampler {
	return func() float64 { return lo + (hi-lo)*rng() }
}

type receiveAdapter struct{ p *Protocol }

func (r receiveAdapter) ReceiveMessage(raw string) { r.p.ReceivePacket(raw) }

// buildPath wires sink "0" -- "1" -- "2".
func buildPath(t *testing.T) (*scheduler.Scheduler, map[topology.Address]*Protocol, map[topology.Address]*routing.Logs) {
	t.Helper()
	s := scheduler.New(11)
	constDelay := func(d float64) topology.DelaySampler { return func() float64 { return d } }
	links := []topology.Link{
		{A: "0", B: "1", Delay: constDelay(5)},
		{A: "1", B: "2", Delay: constDelay(8)},
	}
	registry := topology.NewLinkRegistry(links)
	m := medium.New(s, registry, nil)

	protos := make(map[topology.Address]*Protocol)
	logs := make(map[topology.Address]*routing.Logs)
	roles := map[topology.Address]routing.Role{"0": routing.SinkRole, "1": routing.SensingRole, "2": routing.SensingRole}
	for _, addr := range []topology.Address{"0", "1", "2"} {
		l := &routing.Logs{}
		host := routing.Host{Self: addr, Sched: s, Medium: m, Transmitter: scheduler.NewResource(s)}
		pr := New(host, roles[addr], l)
		protos[addr] = pr
		logs[addr] = l
		m.Register(addr, receiveAdapter{pr})
	}
	return s, protos, logs
}

func TestETX_HelloDiscoversNeighboursBothWays(t *testing.T) {
	s, protos, _ := buildPath(t)
	s.Spawn(func(p *scheduler.Process) { protos["0"].Setup(p) })
	s.Run(10)

	if !protos["0"].isNeighbour("1") {
		t.Error("sink never discovered node 1 as a neighbour")
	}
	if !protos["1"].isNeighbour("0") {
		t.Error("node 1 never discovered the sink as a neighbour")
	}
}

func TestETX_ForwardsApplicationPayloadTowardSink(t *testing.T) {
	s, protos, logs := buildPath(t)
	s.Spawn(func(p *scheduler.Process) { protos["0"].Setup(p) })
	s.Run(30)

	s.Spawn(func(p *scheduler.Process) {
		protos["2"].AddToOutputQueue(p, "2/5/1.0", routing.SinkKeyword)
	})
	s.Run(60)

	sawForward := false
	for _, e := range logs["0"].Received.Entries() {
		if e.Wire == "1,sink,2/5/1.0" {
			sawForward = true
		}
	}
	if !sawForward {
		t.Errorf("sink's received log never shows node 1 forwarding node 2's payload: %v", logs["0"].Received.Entries())
	}
}

func TestETX_SelectForwarder_PicksLowerTotalETXWithTolerance(t *testing.T) {
	host := routing.Host{Self: "1", Sched: scheduler.New(1)}
	pr := New(host, routing.SensingRole, &routing.Logs{})
	pr.neighbours["a"] = &neighbour{etx: 2}
	pr.order = append(pr.order, "a")
	pr.neighbours["b"] = &neighbour{etx: 2 + 1e-12}
	pr.order = append(pr.order, "b")
	pr.neighbours["c"] = &neighbour{etx: 5}
	pr.order = append(pr.order, "c")

	got, err := pr.selectForwarder()
	if err != nil {
		t.Fatalf("selectForwarder() error = %v", err)
	}
	if got != "a" && got != "b" {
		t.Errorf("selectForwarder() = %v, want a or b (within tolerance of the minimum)", got)
	}
}

func TestETX_SelectForwarder_NoNeighboursIsTransient(t *testing.T) {
	host := routing.Host{Self: "1", Sched: scheduler.New(1)}
	pr := New(host, routing.SensingRole, &routing.Logs{})

	_, err := pr.selectForwarder()
	if _, ok := err.(routing.ErrNoNeighboursYet); !ok {
		t.Errorf("selectForwarder() error = %v, want routing.ErrNoNeighboursYet", err)
	}
}

func TestNeighbour_TotalETX_MeanOfSamplesPlusAdvertised(t *testing.T) {
	n := neighbour{etx: 3, samples: []float64{1, 2, 3}}
	if got, want := n.totalETX(), 3.0+2.0; got != want {
		t.Errorf("totalETX() = %v, want %v", got, want)
	}
}
