// Package node wires a static topology.Node to a routing protocol
// implementation and the scheduler process that drives its lifecycle:
// a wakeup delay, protocol setup, and — for sensing nodes — a periodic
// measurement loop toward the sink, mirroring the original source's
// _SimulationNode.
package node

import (
	"fmt"

	"github.com/kprusa/wsnsim/internal/routing"
	"github.com/kprusa/wsnsim/internal/scheduler"
	"github.com/kprusa/wsnsim/internal/topology"
)

// measurement is the literal payload every sensing reading carries. The
// source this is ported from hard-codes the same placeholder ("X");
// nothing in the wire format or performance collector inspects its
// contents beyond treating it as an opaque field.
const measurement = "X"

// Node ties a static topology entity to the routing protocol instance
// running on it and to the wire-format logs that protocol writes to.
type Node struct {
	Topology topology.Node
	Protocol routing.Protocol
	Logs     *routing.Logs
}

// New constructs a Node. proto must already be wired to a routing.Host
// whose Self matches top.Address.
func New(top topology.Node, proto routing.Protocol, logs *routing.Logs) *Node {
	return &Node{Topology: top, Protocol: proto, Logs: logs}
}

// ReceiveMessage implements medium.Receiver by handing the wire string
// straight to the routing protocol.
func (n *Node) ReceiveMessage(raw string) {
	n.Protocol.ReceivePacket(raw)
}

// Run is the node's main routine: wait out its configured wakeup offset,
// run the protocol's setup (hello broadcast / periodic share tasks —
// every role runs this, not just the sink, since ETX and DAP need their
// sensing-side periodic tasks started too), then, for sensing nodes,
// loop forever emitting one measurement toward the sink every sensing
// period. The send itself is spawned rather than awaited inline, so the
// loop's pacing never depends on how long the send takes to acquire the
// transmitter.
func (n *Node) Run(p *scheduler.Process) {
	p.Wait(p.Timeout(n.Topology.SensingOffset))
	n.Protocol.Setup(p)

	if n.Topology.Kind != topology.Sensing {
		return
	}

	sched := p.Sched()
	for {
		p.Wait(p.Timeout(n.Topology.SensingPeriod))
		payload := fmt.Sprintf("%s/%s/%.2f", n.Topology.Address, measurement, sched.Now())
		sched.Spawn(func(sp *scheduler.Process) {
			n.Protocol.AddToOutputQueue(sp, payload, routing.SinkKeyword)
		})
	}
}
