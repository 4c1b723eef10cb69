package medium

import (
	"reflect"
	"testing"

	"github.com/kprusa/wsnsim/internal/scheduler"
	"github.com/kprusa/wsnsim/internal/topology"
)

type recordingReceiver struct {
	addr     topology.Address
	received *[]string
}

func (r recordingReceiver) ReceiveMessage(raw string) {
	*r.received = append(*r.received, string(r.addr)+":"+raw)
}

func constDelay(d float64) topology.DelaySampler {
	return func() float64 { return d }
}

func TestMedium_BroadcastDeliversToAllNeighboursAtSameInstant(t *testing.T) {
	links := []topology.Link{
		{A: "0", B: "1", Delay: constDelay(5)},
		{A: "0", B: "2", Delay: constDelay(5)},
		{A: "0", B: "3", Delay: constDelay(5)},
	}
	registry := topology.NewLinkRegistry(links)
	s := scheduler.New(1)
	m := New(s, registry, nil)

	var received []string
	for _, addr := range []topology.Address{"1", "2", "3"} {
		m.Register(addr, recordingReceiver{addr: addr, received: &received})
	}

	s.Spawn(func(p *scheduler.Process) {
		if _, err := m.SendDataToMedium("0,,Hello+0"); err != nil {
			t.Errorf("SendDataToMedium() error = %v", err)
		}
	})
	s.Run(0)

	want := []string{"1:0,,Hello+0", "2:0,,Hello+0", "3:0,,Hello+0"}
	if !reflect.DeepEqual(received, want) {
		t.Errorf("received = %v, want %v (broadcast must not incur link delay and must follow enumeration order)", received, want)
	}
	if s.Now() != 0 {
		t.Errorf("Now() = %v, want 0 (broadcast has zero delay)", s.Now())
	}
}

func TestMedium_UnicastDelaysByLinkSample(t *testing.T) {
	links := []topology.Link{{A: "0", B: "1", Delay: constDelay(7)}}
	registry := topology.NewLinkRegistry(links)
	s := scheduler.New(1)
	m := New(s, registry, nil)

	var received []string
	m.Register("1", recordingReceiver{addr: "1", received: &received})

	var gotDelay float64
	s.Spawn(func(p *scheduler.Process) {
		var err error
		gotDelay, err = m.SendDataToMedium("0,1,hi")
		if err != nil {
			t.Errorf("SendDataToMedium() error = %v", err)
		}
	})
	s.Run(100)

	if len(received) != 1 || received[0] != "1:0,1,hi" {
		t.Errorf("received = %v", received)
	}
	if s.Now() != 7 {
		t.Errorf("Now() = %v, want 7", s.Now())
	}
	if gotDelay != 7 {
		t.Errorf("SendDataToMedium() delay = %v, want 7", gotDelay)
	}
}

func TestMedium_UnicastToNonAdjacentIsFatalError(t *testing.T) {
	registry := topology.NewLinkRegistry(nil)
	s := scheduler.New(1)
	m := New(s, registry, nil)

	var gotErr error
	s.Spawn(func(p *scheduler.Process) {
		_, gotErr = m.SendDataToMedium("0,1,hi")
	})
	s.Run(0)

	var noLink topology.ErrNoLink
	if gotErr == nil {
		t.Fatal("expected ErrNoLink, got nil")
	}
	if _, ok := gotErr.(topology.ErrNoLink); !ok {
		t.Errorf("error = %v (%T), want topology.ErrNoLink", gotErr, gotErr)
	}
	_ = noLink
}

func TestMedium_NegativeDelaySampleIsFatalError(t *testing.T) {
	links := []topology.Link{{A: "0", B: "1", Delay: constDelay(-1)}}
	registry := topology.NewLinkRegistry(links)
	s := scheduler.New(1)
	m := New(s, registry, nil)
	m.Register("1", recordingReceiver{addr: "1", received: &[]string{}})

	var gotErr error
	s.Spawn(func(p *scheduler.Process) {
		_, gotErr = m.SendDataToMedium("0,1,hi")
	})
	s.Run(0)

	if _, ok := gotErr.(topology.ErrNegativeDelay); !ok {
		t.Errorf("error = %v (%T), want topology.ErrNegativeDelay", gotErr, gotErr)
	}
}
