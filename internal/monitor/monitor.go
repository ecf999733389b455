// Package monitor tracks remote reachability with periodic liveness
// probes, reporting only transitions between online and offline.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/ostap/trackbox/internal/tasks"
)

// Prober is the slice of the API client a probe needs.
type Prober interface {
	Ping(ctx context.Context) error
}

const defaultInterval = 15 * time.Second

// Monitor probes reachability on a fixed cadence. Probes run through the
// task runner so the interactive loop never blocks; since probes are
// idempotent reads, overlapping probes need no mutual exclusion.
type Monitor struct {
	prober   Prober
	runner   *tasks.Runner
	interval time.Duration
	onChange func(online bool)

	mu     sync.Mutex
	known  bool
	online bool
}

// New builds a monitor. onChange fires on the interactive loop (from a
// dispatched delivery) and only when the resolved state differs from the
// last known one.
func New(prober Prober, runner *tasks.Runner, interval time.Duration, onChange func(online bool)) *Monitor {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Monitor{
		prober:   prober,
		runner:   runner,
		interval: interval,
		onChange: onChange,
	}
}

// Start launches the probe loop: once immediately, then on every tick
// until ctx is cancelled. It returns immediately.
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			m.Check()
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Check submits a single probe through the runner. A probe that errors
// (transport failure or server-error status) resolves to offline.
func (m *Monitor) Check() {
	m.runner.Submit(func(ctx context.Context) (any, error) {
		return m.prober.Ping(ctx) == nil, nil
	}, tasks.Hooks{
		OnSuccess: func(result any) {
			online, _ := result.(bool)
			m.resolve(online)
		},
	})
}

// Online returns the last known reachability. False until the first
// probe resolves.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.known && m.online
}

func (m *Monitor) resolve(online bool) {
	m.mu.Lock()
	changed := !m.known || m.online != online
	m.known = true
	m.online = online
	m.mu.Unlock()

	if changed && m.onChange != nil {
		m.onChange(online)
	}
}
