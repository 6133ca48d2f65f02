package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"TrancheTrack/internal/app"
	"TrancheTrack/internal/model"
	"TrancheTrack/internal/notifier"
	"TrancheTrack/internal/portfolio"

	"github.com/google/subcommands"
)

type thresholdCmd struct {
	ticker string
	add    float64
	trim   float64
	reset  bool
}

func (*thresholdCmd) Name() string     { return "threshold" }
func (*thresholdCmd) Synopsis() string { return "show or change oscillator alert thresholds" }
func (*thresholdCmd) Usage() string {
	return `threshold [-ticker <ticker> (-add <pct> -trim <pct> | -reset)]

  Without -ticker, prints the effective thresholds of every tracked ticker.
  Percentages are fractions of the average cost, e.g. -add -0.2 -trim 0.4.
`
}

func (c *thresholdCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "ticker", "", "Ticker to change")
	f.Float64Var(&c.add, "add", 0, "Add threshold, negative fraction")
	f.Float64Var(&c.trim, "trim", 0, "Trim threshold, positive fraction")
	f.BoolVar(&c.reset, "reset", false, "Remove the override for -ticker")
}

func (c *thresholdCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app.App) subcommands.ExitStatus {
		th := a.Thresholds
		if c.ticker == "" {
			fmt.Print(plain(notifier.FormatThresholds(portfolio.Tickers(a.Ledger.Tranches()), th.Get)))
			return subcommands.ExitSuccess
		}
		ticker := model.NormalizeTicker(c.ticker)
		if c.reset {
			removed, err := th.Reset(ticker)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return subcommands.ExitFailure
			}
			if !removed {
				fmt.Printf("%s has no override\n", ticker)
			}
		} else if err := th.Set(ticker, model.AlertThreshold{AddPct: c.add, TrimPct: c.trim}); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		fmt.Print(plain(notifier.FormatThresholds([]string{ticker}, th.Get)))
		return subcommands.ExitSuccess
	})
}
