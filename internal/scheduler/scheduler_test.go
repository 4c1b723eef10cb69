package scheduler

import (
	"reflect"
	"testing"
)

func TestScheduler_TimeoutOrdering(t *testing.T) {
	s := New(1)
	var trace []string

	s.Spawn(func(p *Process) {
		p.Wait(p.Timeout(5))
		trace = append(trace, "a@5")
	})
	s.Spawn(func(p *Process) {
		p.Wait(p.Timeout(1))
		trace = append(trace, "b@1")
	})
	s.Spawn(func(p *Process) {
		p.Wait(p.Timeout(1))
		trace = append(trace, "c@1")
	})

	s.Run(10)

	want := []string{"b@1", "c@1", "a@5"}
	if !reflect.DeepEqual(trace, want) {
		t.Errorf("trace = %v, want %v", trace, want)
	}
}

func TestScheduler_RunZeroProducesNoEvents(t *testing.T) {
	s := New(1)
	fired := false
	s.SpawnAfter(1, func(p *Process) {
		fired = true
	})
	s.Run(0)
	if fired {
		t.Errorf("expected no events to fire for Run(0)")
	}
	if s.Now() != 0 {
		t.Errorf("Now() = %v, want 0", s.Now())
	}
}

func TestScheduler_DeterministicForFixedSeed(t *testing.T) {
	run := func() []string {
		s := New(290696)
		var trace []string
		for i := 0; i < 5; i++ {
			i := i
			s.SpawnAfter(float64(i%3), func(p *Process) {
				trace = append(trace, itoa(i))
			})
		}
		s.Run(100)
		return trace
	}

	first := run()
	second := run()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("traces differ across runs with the same seed: %v vs %v", first, second)
	}
}

func TestScheduler_NestedSpawnOrdering(t *testing.T) {
	s := New(1)
	var trace []string

	s.Spawn(func(p *Process) {
		trace = append(trace, "outer-start")
		p.Sched().Spawn(func(p *Process) {
			trace = append(trace, "inner")
		})
		trace = append(trace, "outer-end")
	})

	s.Run(0)

	want := []string{"outer-start", "outer-end", "inner"}
	if !reflect.DeepEqual(trace, want) {
		t.Errorf("trace = %v, want %v", trace, want)
	}
}

func itoa(i int) string {
	digits := "0123456789"
	if i == 0 {
		return "0"
	}
	out := ""
	for i > 0 {
		out = string(digits[i%10]) + out
		i /= 10
	}
	return out
}
