// Package tasks runs units of work off the interactive loop and delivers
// their outcomes back to it.
//
// # Model
//
// Submit launches the work on its own goroutine and parks the outcome on
// a single-consumer channel. The interactive loop receives deliveries
// from Deliveries and invokes Dispatch on its own turn, so success,
// error, and done hooks never run concurrently with other interactive
// code. Exactly one of OnSuccess or OnError fires per submission,
// followed unconditionally by OnDone.
//
// Independent submissions run concurrently and carry no ordering
// guarantee between each other. Callers that need sequencing (sync after
// login, for instance) chain the next submission from OnDone.
package tasks

import (
	"context"
	"sync"
)

// Hooks are the callbacks delivered back on the interactive loop.
type Hooks struct {
	OnSuccess func(result any)
	OnError   func(err error)
	OnDone    func()
}

// Delivery is one finished task's outcome, ready to be dispatched on the
// interactive loop.
type Delivery struct {
	result any
	err    error
	hooks  Hooks
	done   func()
}

// Dispatch invokes the registered hooks. Must be called from the
// interactive loop only.
func (d Delivery) Dispatch() {
	if d.err != nil {
		if d.hooks.OnError != nil {
			d.hooks.OnError(d.err)
		}
	} else if d.hooks.OnSuccess != nil {
		d.hooks.OnSuccess(d.result)
	}
	if d.hooks.OnDone != nil {
		d.hooks.OnDone()
	}
	if d.done != nil {
		d.done()
	}
}

// Err exposes the task failure, if any.
func (d Delivery) Err() error { return d.err }

// Runner executes submitted work on worker goroutines.
type Runner struct {
	ctx        context.Context
	mu         sync.Mutex
	inflight   map[*struct{}]struct{}
	deliveries chan Delivery
}

const deliveryBuffer = 64

// NewRunner builds a runner whose workers observe ctx.
func NewRunner(ctx context.Context) *Runner {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Runner{
		ctx:        ctx,
		inflight:   make(map[*struct{}]struct{}),
		deliveries: make(chan Delivery, deliveryBuffer),
	}
}

// Deliveries is the channel the interactive loop drains.
func (r *Runner) Deliveries() <-chan Delivery {
	return r.deliveries
}

// InFlight returns the number of tasks submitted but not yet dispatched.
func (r *Runner) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inflight)
}

// Submit schedules work on a worker goroutine and registers the hooks
// that will fire once the interactive loop dispatches the outcome.
func (r *Runner) Submit(work func(ctx context.Context) (any, error), hooks Hooks) {
	token := new(struct{})
	r.mu.Lock()
	r.inflight[token] = struct{}{}
	r.mu.Unlock()

	cleanup := func() {
		r.mu.Lock()
		delete(r.inflight, token)
		r.mu.Unlock()
	}

	go func() {
		result, err := work(r.ctx)
		select {
		case r.deliveries <- Delivery{result: result, err: err, hooks: hooks, done: cleanup}:
		case <-r.ctx.Done():
			cleanup()
		}
	}()
}
