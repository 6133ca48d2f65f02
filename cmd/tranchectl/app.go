package main

import (
	"context"
	"flag"
	"fmt"
	"html"
	"os"
	"strings"

	"TrancheTrack/internal/app"
	"TrancheTrack/internal/config"
	"TrancheTrack/internal/logging"
	"TrancheTrack/internal/notifier"
	"TrancheTrack/internal/recorder"
	"TrancheTrack/internal/scheduler"

	"github.com/google/subcommands"
)

// as a short lived CLI, global flags are fine.

var configPath = flag.String("config", "", "Path to the YAML config (default $CONFIG_PATH or configs/config.yaml)")
var logLevel = flag.String("log-level", "warn", "Log level on stderr")

// openApp loads configuration and opens the stores. Notices are printed to
// stderr as they are raised.
func openApp(ctx context.Context) (*app.App, error) {
	p := *configPath
	if p == "" {
		p = config.Path()
	}
	cfg, err := config.Load(p)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := logging.New(*logLevel)
	return app.New(ctx, cfg, logger, func(n notifier.Notice) {
		fmt.Fprintln(os.Stderr, plain(notifier.FormatNotice(n)))
	})
}

// newScheduler builds a scheduler without cron or chat delivery, for one-off
// refreshes and reports.
func newScheduler(ctx context.Context, a *app.App) *scheduler.Scheduler {
	return scheduler.NewScheduler(ctx, scheduler.Deps{
		Ledger:     a.Ledger,
		Collector:  a.Collector,
		State:      a.State,
		Thresholds: a.Thresholds,
		Center:     a.Center,
		Recorder:   a.Recorder,
		Logger:     a.Logger.Component("scheduler"),
	}, a.Config.Benchmark, a.View())
}

var markup = strings.NewReplacer("<b>", "", "</b>", "", "<code>", "", "</code>", "")

// plain strips the chat markup from formatted text.
func plain(s string) string {
	return html.UnescapeString(markup.Replace(s))
}

// withApp opens the app, runs fn and closes the app.
func withApp(ctx context.Context, fn func(a *app.App) subcommands.ExitStatus) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()
	return fn(a)
}

func recordEvent(ctx context.Context, a *app.App, evt *recorder.TrancheEvent) {
	if err := a.Recorder.RecordTrancheEvent(ctx, evt); err != nil {
		a.Logger.Warn().Err(err).Msg("record tranche event")
	}
}
