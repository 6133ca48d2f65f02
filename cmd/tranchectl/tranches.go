package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"TrancheTrack/internal/app"
	"TrancheTrack/internal/ledger"
	"TrancheTrack/internal/model"
	"TrancheTrack/internal/notifier"
	"TrancheTrack/internal/recorder"

	"github.com/google/subcommands"
)

type listCmd struct{}

func (*listCmd) Name() string             { return "list" }
func (*listCmd) Synopsis() string         { return "list tranches with their ids" }
func (*listCmd) Usage() string            { return "list\n\n  Lists every tranche in insertion order.\n" }
func (*listCmd) SetFlags(_ *flag.FlagSet) {}

func (*listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app.App) subcommands.ExitStatus {
		fmt.Print(plain(notifier.FormatTranches(a.Ledger.Tranches())))
		return subcommands.ExitSuccess
	})
}

type addCmd struct {
	ticker, date, price, bench, shares string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add a purchase tranche" }
func (*addCmd) Usage() string {
	return `add -ticker <ticker> -date <MM/DD/YYYY> -price <price> -bench <benchmark price> [-shares <n>]

  Adds a tranche. The ticker, date and purchase price identify it; adding the
  same tranche twice is refused.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "ticker", "", "Ticker symbol (required)")
	f.StringVar(&c.date, "date", "", "Purchase date, MM/DD/YYYY (required)")
	f.StringVar(&c.price, "price", "", "Purchase price per share (required)")
	f.StringVar(&c.bench, "bench", "", "Benchmark price on the purchase date (required)")
	f.StringVar(&c.shares, "shares", "", "Number of shares")
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" || c.date == "" || c.price == "" || c.bench == "" {
		fmt.Fprintln(os.Stderr, "Error: -ticker, -date, -price and -bench are required.")
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app.App) subcommands.ExitStatus {
		t, err := a.Ledger.Add(ctx, ledger.AddInput{
			Ticker: c.ticker, Date: c.date, PurchasePrice: c.price, BenchmarkPrice: c.bench, Shares: c.shares,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if errors.Is(err, ledger.ErrInvalidInput) {
				return subcommands.ExitUsageError
			}
			return subcommands.ExitFailure
		}
		recordEvent(ctx, a, &recorder.TrancheEvent{
			Action: "add", TrancheID: t.ID, Ticker: t.Ticker,
			Detail: fmt.Sprintf("%s @ %.2f bench %.2f", t.Date, t.PurchasePrice, t.BenchmarkPrice),
		})
		fmt.Printf("Added #%s %s %s @ $%.2f\n", t.ID, t.Ticker, notifier.FormatDate(t.Date), t.PurchasePrice)
		return subcommands.ExitSuccess
	})
}

type updateCmd struct {
	id, field, value string
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "change a numeric field of a tranche" }
func (*updateCmd) Usage() string {
	return `update -id <id> -field purchasePrice|benchmarkPrice|shares -value <v>

  Prices must be positive. An empty or invalid shares value removes the
  share count.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Tranche id (required)")
	f.StringVar(&c.field, "field", "", "Field to change (required)")
	f.StringVar(&c.value, "value", "", "New value")
}

func (c *updateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" || c.field == "" {
		fmt.Fprintln(os.Stderr, "Error: -id and -field are required.")
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app.App) subcommands.ExitStatus {
		id := model.TrancheID(c.id)
		changed, err := a.Ledger.Update(ctx, id, c.field, c.value)
		return mutationStatus(ctx, a, "update", id, c.field+"="+c.value, changed, err)
	})
}

type dateCmd struct {
	id, date string
}

func (*dateCmd) Name() string     { return "set-date" }
func (*dateCmd) Synopsis() string { return "move a tranche to another purchase date" }
func (*dateCmd) Usage() string    { return "set-date -id <id> -date <MM/DD/YYYY>\n" }

func (c *dateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Tranche id (required)")
	f.StringVar(&c.date, "date", "", "New purchase date, MM/DD/YYYY (required)")
}

func (c *dateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" || c.date == "" {
		fmt.Fprintln(os.Stderr, "Error: -id and -date are required.")
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app.App) subcommands.ExitStatus {
		id := model.TrancheID(c.id)
		changed, err := a.Ledger.UpdateDate(ctx, id, c.date)
		return mutationStatus(ctx, a, "date", id, c.date, changed, err)
	})
}

type deleteCmd struct {
	id string
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "remove a tranche" }
func (*deleteCmd) Usage() string    { return "delete -id <id>\n" }

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Tranche id (required)")
}

func (c *deleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		fmt.Fprintln(os.Stderr, "Error: -id is required.")
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app.App) subcommands.ExitStatus {
		id := model.TrancheID(c.id)
		changed, err := a.Ledger.Delete(ctx, id)
		return mutationStatus(ctx, a, "delete", id, "", changed, err)
	})
}

func mutationStatus(ctx context.Context, a *app.App, action string, id model.TrancheID, detail string, changed bool, err error) subcommands.ExitStatus {
	if changed {
		recordEvent(ctx, a, &recorder.TrancheEvent{Action: action, TrancheID: id, Detail: detail})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if !changed {
		fmt.Fprintf(os.Stderr, "Nothing changed for #%s (unknown id or invalid value).\n", id)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s #%s done\n", action, id)
	return subcommands.ExitSuccess
}
