package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/ostap/trackbox/internal/api"
	"github.com/ostap/trackbox/internal/tasks"
)

// scriptedProber returns one canned ping result per call, repeating the
// last entry once the script runs out.
type scriptedProber struct {
	errs []error
	call int
}

func (p *scriptedProber) Ping(context.Context) error {
	idx := p.call
	if idx >= len(p.errs) {
		idx = len(p.errs) - 1
	}
	p.call++
	return p.errs[idx]
}

func pump(t *testing.T, r *tasks.Runner) {
	t.Helper()
	select {
	case d := <-r.Deliveries():
		d.Dispatch()
	case <-time.After(2 * time.Second):
		t.Fatalf("no delivery within deadline")
	}
}

func TestCheck_RepeatedIdenticalProbesEmitOneEvent(t *testing.T) {
	runner := tasks.NewRunner(context.Background())
	prober := &scriptedProber{errs: []error{nil}}

	var events []bool
	m := New(prober, runner, time.Minute, func(online bool) {
		events = append(events, online)
	})

	for i := 0; i < 3; i++ {
		m.Check()
		pump(t, runner)
	}

	if len(events) != 1 || events[0] != true {
		t.Fatalf("events = %v, want single online event", events)
	}
	if !m.Online() {
		t.Fatalf("Online() = false, want true")
	}
}

func TestCheck_TransitionsEmitOnChangeOnly(t *testing.T) {
	runner := tasks.NewRunner(context.Background())
	offline := &api.Error{Message: "connection refused"}
	prober := &scriptedProber{errs: []error{nil, nil, offline, offline, nil}}

	var events []bool
	m := New(prober, runner, time.Minute, func(online bool) {
		events = append(events, online)
	})

	for i := 0; i < 5; i++ {
		m.Check()
		pump(t, runner)
	}

	want := []bool{true, false, true}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
}

func TestCheck_ServerErrorProbeResolvesOffline(t *testing.T) {
	runner := tasks.NewRunner(context.Background())
	prober := &scriptedProber{errs: []error{&api.Error{Status: 502, Message: "server error (502)"}}}

	var events []bool
	m := New(prober, runner, time.Minute, func(online bool) {
		events = append(events, online)
	})

	m.Check()
	pump(t, runner)

	if len(events) != 1 || events[0] {
		t.Fatalf("events = %v, want single offline event", events)
	}
	if m.Online() {
		t.Fatalf("Online() = true, want false")
	}
}
