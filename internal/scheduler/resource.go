package scheduler

import "container/heap"

// Resource is a capacity-1 holder with a strict FIFO wait list, used to
// serialize a node's transmitter so at most one packet is ever in flight
// to the radio at a time.
type Resource struct {
	sched   *Scheduler
	free    bool
	waiters []*event
}

// NewResource creates a free Resource bound to s.
func NewResource(s *Scheduler) *Resource {
	return &Resource{sched: s, free: true}
}

// Request returns an Event that fires once the caller holds the resource.
// Release must be called exactly once per successful Request, on every
// exit path (a deferred call right after Wait is the idiomatic shape), or
// the resource deadlocks every later waiter.
func (r *Resource) Request() *Event {
	e := &event{seq: r.sched.nextSeq(), ready: make(chan struct{})}
	if r.free {
		r.free = false
		e.time = r.sched.now
		heap.Push(&r.sched.queue, e)
	} else {
		r.waiters = append(r.waiters, e)
	}
	return &Event{e: e}
}

// Release hands the resource to the next FIFO waiter, if any, scheduling
// its grant at the current virtual time; otherwise the resource goes idle.
func (r *Resource) Release() {
	if len(r.waiters) == 0 {
		r.free = true
		return
	}
	next := r.waiters[0]
	r.waiters = r.waiters[1:]
	next.time = r.sched.now
	heap.Push(&r.sched.queue, next)
}
