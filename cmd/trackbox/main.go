package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ostap/trackbox/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override trackbox config path (optional)")
	pollSeconds := flag.Int("poll", 0, "connectivity probe interval in seconds (optional)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if os.Getenv("TRACKBOX_DEBUG") != "" {
		f, err := tea.LogToFile("trackbox-debug.log", "trackbox")
		if err != nil {
			fmt.Fprintf(os.Stderr, "trackbox: open debug log: %v\n", err)
			return 1
		}
		defer f.Close()
	}

	opts := app.Options{ConfigPath: *configPath}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "trackbox: %v\n", err)
		return 1
	}
	return 0
}
