package scheduler

import (
	"reflect"
	"testing"
)

func TestResource_FIFOAndRelease(t *testing.T) {
	s := New(1)
	res := NewResource(s)
	var trace []string

	hold := func(name string, dt float64) func(p *Process) {
		return func(p *Process) {
			p.Wait(res.Request())
			defer res.Release()
			trace = append(trace, name+"-acquire@"+fstr(p.Sched().Now()))
			p.Wait(p.Timeout(dt))
			trace = append(trace, name+"-release@"+fstr(p.Sched().Now()))
		}
	}

	s.Spawn(hold("a", 3))
	s.Spawn(hold("b", 1))
	s.Spawn(hold("c", 1))

	s.Run(100)

	want := []string{
		"a-acquire@0", "a-release@3",
		"b-acquire@3", "b-release@4",
		"c-acquire@4", "c-release@5",
	}
	if !reflect.DeepEqual(trace, want) {
		t.Errorf("trace = %v, want %v", trace, want)
	}
}

func TestResource_ReleaseOnEveryExitPathViaDefer(t *testing.T) {
	s := New(1)
	res := NewResource(s)
	acquired := 0

	s.Spawn(func(p *Process) {
		p.Wait(res.Request())
		defer res.Release()
		acquired++
	})
	s.Spawn(func(p *Process) {
		p.Wait(res.Request())
		defer res.Release()
		acquired++
	})

	s.Run(0)

	if acquired != 2 {
		t.Errorf("acquired = %d, want 2 (second waiter must be released into)", acquired)
	}
}

func fstr(f float64) string {
	i := int(f)
	if float64(i) == f {
		return itoa(i)
	}
	return "x"
}
