// Package medium implements the shared wireless medium: it turns a wire
// string handed to it by a sending node into one or more scheduled
// receive_message deliveries, honoring each link's stochastic delay.
package medium

import (
	"go.uber.org/zap"

	"github.com/kprusa/wsnsim/internal/scheduler"
	"github.com/kprusa/wsnsim/internal/topology"
	"github.com/kprusa/wsnsim/internal/wire"
)

// Receiver is implemented by anything the medium can deliver a packet to.
// The medium holds receivers by address and looks them up at delivery
// time rather than owning pointers directly, which is how the cyclic
// node<->medium reference is broken.
type Receiver interface {
	ReceiveMessage(raw string)
}

// Medium routes packets between neighbours over a static LinkRegistry.
type Medium struct {
	sched    *scheduler.Scheduler
	registry *topology.LinkRegistry
	nodes    map[topology.Address]Receiver
	log      *zap.Logger
}

// New creates a Medium driven by sched and routing over registry.
func New(sched *scheduler.Scheduler, registry *topology.LinkRegistry, log *zap.Logger) *Medium {
	if log == nil {
		log = zap.NewNop()
	}
	return &Medium{
		sched:    sched,
		registry: registry,
		nodes:    make(map[topology.Address]Receiver),
		log:      log,
	}
}

// Register associates addr with the Receiver that should get packets sent
// to it.
func (m *Medium) Register(addr topology.Address, r Receiver) {
	m.nodes[addr] = r
}

// SendDataToMedium parses raw and schedules its delivery: broadcasts reach
// every neighbour of the origin at the current virtual instant (zero
// additional delay); unicasts are delayed by a fresh sample from the
// origin-destination link. It returns the delay it scheduled the delivery
// for (0 for a broadcast) so that a caller probing a link can record it
// directly, matching the one-way delay sample the original radio call
// blocked on during link-probing. It returns a fatal topology or sampler
// error if raw cannot be routed; callers run inside a scheduler process
// and are expected to treat a non-nil error as fatal.
func (m *Medium) SendDataToMedium(raw string) (float64, error) {
	pkt, err := wire.Parse(raw)
	if err != nil {
		return 0, err
	}

	if pkt.IsBroadcast() {
		for _, dst := range m.registry.Neighbours(pkt.Origin) {
			dst := dst
			m.log.Debug("medium: broadcasting",
				zap.String("origin", string(pkt.Origin)),
				zap.String("to", string(dst)),
				zap.String("payload", pkt.Payload),
			)
			m.sched.SpawnAfter(0, func(p *scheduler.Process) {
				m.deliver(dst, raw)
			})
		}
		return 0, nil
	}

	link, err := m.registry.LinkBetween(pkt.Origin, pkt.Destination)
	if err != nil {
		return 0, err
	}
	delay, err := link.Sample()
	if err != nil {
		return 0, err
	}
	m.log.Debug("medium: unicasting",
		zap.String("origin", string(pkt.Origin)),
		zap.String("to", string(pkt.Destination)),
		zap.Float64("delay", delay),
	)
	m.sched.SpawnAfter(delay, func(p *scheduler.Process) {
		m.deliver(pkt.Destination, raw)
	})
	return delay, nil
}

func (m *Medium) deliver(addr topology.Address, raw string) {
	r, ok := m.nodes[addr]
	if !ok {
		m.log.Warn("medium: dropping packet for unregistered node", zap.String("to", string(addr)))
		return
	}
	r.ReceiveMessage(raw)
}
