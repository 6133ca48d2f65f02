package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"TrancheTrack/internal/app"
	"TrancheTrack/internal/dashboard"
	"TrancheTrack/internal/model"
	"TrancheTrack/internal/notifier"

	"github.com/google/subcommands"
)

type reportCmd struct {
	sort    string
	ticker  string
	refresh bool
	rank    bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "print the tranche report" }
func (*reportCmd) Usage() string {
	return `report [-refresh] [-sort first-seen|ticker|alpha] [-ticker <ticker>] [-rank]

  Prints tranche metrics grouped by ticker. Without -refresh no prices are
  fetched and market-dependent values are shown as "—".
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.sort, "sort", "", "Group order (default from config)")
	f.StringVar(&c.ticker, "ticker", "", "Only show this ticker")
	f.BoolVar(&c.refresh, "refresh", false, "Fetch prices and indicators first")
	f.BoolVar(&c.rank, "rank", false, "Also print the signal ranking")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	order, err := dashboard.ParseSort(c.sort)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app.App) subcommands.ExitStatus {
		sched := newScheduler(ctx, a)
		if c.refresh {
			sched.Refresh(ctx)
		}
		opts := dashboard.Options{Filter: c.ticker}
		if c.sort != "" {
			opts.Sort = order
		}
		rep := sched.Report(opts)
		fmt.Print(plain(notifier.FormatReport(rep)))
		if c.rank {
			fmt.Println()
			fmt.Print(plain(notifier.FormatRankings(rep.Rankings)))
		}
		return subcommands.ExitSuccess
	})
}

type historyCmd struct {
	ticker string
	limit  int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "print recorded refreshes of a ticker" }
func (*historyCmd) Usage() string    { return "history -ticker <ticker> [-n 10]\n" }

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "ticker", "", "Ticker symbol (required)")
	f.IntVar(&c.limit, "n", 10, "Number of points, newest first")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ticker := model.NormalizeTicker(c.ticker)
	if ticker == "" || c.limit <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -ticker is required and -n must be positive.")
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app.App) subcommands.ExitStatus {
		points, err := a.Recorder.History(ctx, ticker, c.limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		for _, p := range points {
			price, score := notifier.Placeholder, notifier.Placeholder
			if p.Price != nil {
				price = fmt.Sprintf("%.2f", *p.Price)
			}
			if p.Score != nil {
				score = fmt.Sprintf("%+d %s", *p.Score, p.Label)
			}
			fmt.Printf("%s\t%s\t%s\n", p.At.Format("2006-01-02 15:04"), price, score)
		}
		return subcommands.ExitSuccess
	})
}
