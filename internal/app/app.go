// Package app wires the trackbox components together and boots the TUI.
package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ostap/trackbox/internal/api"
	"github.com/ostap/trackbox/internal/config"
	"github.com/ostap/trackbox/internal/monitor"
	"github.com/ostap/trackbox/internal/queue"
	"github.com/ostap/trackbox/internal/state"
	"github.com/ostap/trackbox/internal/tasks"
	"github.com/ostap/trackbox/internal/tracker"
	"github.com/ostap/trackbox/internal/ui"
)

// Options configure the trackbox application.
type Options struct {
	ConfigPath string
	PollEvery  int // seconds; zero uses the configured interval
}

// Run boots the trackbox TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client, err := api.NewClient(cfg.APIBase)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	store := state.Open(cfg.StatePath())
	backlog := queue.Open(cfg.QueuePath())
	runner := tasks.NewRunner(ctx)
	ctrl := tracker.New(client, store, backlog, runner)

	interval := time.Duration(cfg.PollSeconds) * time.Second
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	// send is bound to the running program before the monitor starts, so
	// change callbacks always have a live loop to land on.
	var send func(tea.Msg)

	ctrl.OnSynced = func(count int) {
		notifyAsync(send, ui.SyncedMsg(count))
	}
	mon := monitor.New(client, runner, interval, func(online bool) {
		notifyAsync(send, ui.ConnectivityMsg(online))
		// A restored connection is a chance to flush the backlog.
		if online {
			ctrl.SyncPending()
		}
	})

	uiOpts := ui.Options{
		Context:    ctx,
		Controller: ctrl,
	}
	return ui.Run(ctx, uiOpts, runner, func(s func(tea.Msg)) {
		send = s
		mon.Start(ctx)
	})
}

// notifyAsync delivers msg to send on its own goroutine. The callbacks
// above fire inside Delivery.Dispatch, on the interactive loop itself;
// Program.Send parks on the channel that same loop drains, so a
// synchronous call from there would deadlock the program.
func notifyAsync(send func(tea.Msg), msg tea.Msg) {
	if send == nil {
		return
	}
	go send(msg)
}
