// Package scheduler implements the simulator's discrete-event core: a
// virtual clock, a min-heap event queue, and a cooperative process
// abstraction modeled as goroutines that hand control back to the run
// loop at every yield point (Timeout, Resource.Request). Exactly one
// goroutine is ever runnable at a time, so no locks guard scheduler state;
// the single-threaded requirement falls out of the protocol rather than
// being enforced by a mutex.
package scheduler

import (
	"container/heap"
	"fmt"
	"math/rand"
)

// Event is something a Process can wait on: a timeout or a resource grant.
type Event struct {
	e *event
}

// Scheduler drives virtual time forward through a queue of pending events.
type Scheduler struct {
	now   float64
	seq   uint64
	queue eventQueue
	ack   chan struct{}
	rng   *rand.Rand
}

// New creates a Scheduler whose RNG is seeded with seed. Every delay
// sampler, tie-breaker, and offset generator in the simulation must draw
// from Rand() rather than from a package-global source, so that a fixed
// seed reproduces a bit-identical trace.
func New(seed int64) *Scheduler {
	return &Scheduler{
		ack: make(chan struct{}),
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Now returns the current virtual time.
func (s *Scheduler) Now() float64 { return s.now }

// Rand returns the scheduler-wide RNG.
func (s *Scheduler) Rand() *rand.Rand { return s.rng }

func (s *Scheduler) nextSeq() uint64 {
	s.seq++
	return s.seq
}

func (s *Scheduler) scheduleAt(at float64) *event {
	e := &event{time: at, seq: s.nextSeq(), ready: make(chan struct{})}
	heap.Push(&s.queue, e)
	return e
}

// Process is the handle a spawned goroutine uses to yield to the scheduler.
type Process struct {
	sched *Scheduler
}

// Sched returns the scheduler driving this process, so nested helpers can
// spawn further processes without threading the scheduler through every
// call site.
func (p *Process) Sched() *Scheduler { return p.sched }

// Timeout returns an Event that fires dt virtual seconds from now. dt must
// be non-negative.
func (p *Process) Timeout(dt float64) *Event {
	if dt < 0 {
		panic(fmt.Sprintf("scheduler: negative timeout %g", dt))
	}
	return &Event{e: p.sched.scheduleAt(p.sched.now + dt)}
}

// Wait blocks the calling process until ev fires, handing control back to
// the run loop in the meantime. Every yield point in the simulator bottoms
// out in exactly one call to Wait.
func (p *Process) Wait(ev *Event) {
	p.sched.ack <- struct{}{}
	<-ev.e.ready
}

// Spawn starts a new process at the current virtual time. fn does not
// run inside Spawn: it starts once the run loop reaches its start event
// (after the caller yields or finishes), then runs up to its first yield
// point (or to completion, if it never yields) before control returns to
// the run loop; this is how
// receive handlers start further sends (replies, forwards) without
// blocking the handler itself on them.
func (s *Scheduler) Spawn(fn func(p *Process)) {
	s.SpawnAfter(0, fn)
}

// SpawnAfter starts a new process dt virtual seconds from now.
func (s *Scheduler) SpawnAfter(dt float64, fn func(p *Process)) {
	if dt < 0 {
		panic(fmt.Sprintf("scheduler: negative spawn delay %g", dt))
	}
	start := s.scheduleAt(s.now + dt)
	go func() {
		<-start.ready
		p := &Process{sched: s}
		fn(p)
		s.ack <- struct{}{}
	}()
}

// Run advances the clock to until, processing every event scheduled at or
// before that time in (time, insertion-order) order. A run with until == 0
// and no zero-time events produces no further events.
func (s *Scheduler) Run(until float64) {
	for s.queue.Len() > 0 && s.queue[0].time <= until {
		top := heap.Pop(&s.queue).(*event)
		s.now = top.time
		close(top.ready)
		<-s.ack
	}
	if until > s.now {
		s.now = until
	}
}
