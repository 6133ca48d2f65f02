package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"TrancheTrack/internal/dashboard"
	"TrancheTrack/internal/ledger"
	"TrancheTrack/internal/model"
	"TrancheTrack/internal/notifier"
	"TrancheTrack/internal/portfolio"
	"TrancheTrack/internal/recorder"
)

const helpText = `Available commands:
• /report [first-seen|ticker|alpha] [TICKER]
• /signals
• /refresh
• /tranches
• /add TICKER MM/DD/YYYY PRICE BENCH [SHARES]
• /update ID price|bench|shares VALUE
• /date ID MM/DD/YYYY
• /delete ID
• /thresholds
• /threshold TICKER ADD% TRIM% | /threshold TICKER reset
• /history TICKER [N]
• /notices | /dismiss FINGERPRINT|all
• /status`

// fieldAliases maps chat field names to ledger fields.
var fieldAliases = map[string]string{
	"price":                    ledger.FieldPurchasePrice,
	"purchase":                 ledger.FieldPurchasePrice,
	ledger.FieldPurchasePrice:  ledger.FieldPurchasePrice,
	"bench":                    ledger.FieldBenchmarkPrice,
	"benchmark":                ledger.FieldBenchmarkPrice,
	ledger.FieldBenchmarkPrice: ledger.FieldBenchmarkPrice,
	ledger.FieldShares:         ledger.FieldShares,
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	args := strings.Fields(command)
	if len(args) == 0 {
		return helpText
	}
	name := strings.ToLower(args[0])
	if i := strings.IndexByte(name, '@'); i > 0 {
		name = name[:i]
	}
	args = args[1:]

	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	case "/report":
		return s.cmdReport(args)
	case "/signals":
		return notifier.FormatRankings(s.report(s.ledger.Tranches(), dashboard.Options{}).Rankings)
	case "/refresh":
		return notifier.FormatReport(s.refresh(ctx))
	case "/tranches":
		return notifier.FormatTranches(s.ledger.Tranches())
	case "/add":
		return s.cmdAdd(ctx, args)
	case "/update":
		return s.cmdUpdate(ctx, args)
	case "/date":
		return s.cmdDate(ctx, args)
	case "/delete":
		return s.cmdDelete(ctx, args)
	case "/thresholds":
		return s.cmdThresholds()
	case "/threshold":
		return s.cmdThreshold(args)
	case "/history":
		return s.cmdHistory(ctx, args)
	case "/notices":
		return notifier.FormatNotices(s.center.Active())
	case "/dismiss":
		return s.cmdDismiss(args)
	case "/status":
		return s.cmdStatus()
	default:
		return helpText
	}
}

func (s *Scheduler) cmdReport(args []string) string {
	var opts dashboard.Options
	for _, a := range args {
		if order, err := dashboard.ParseSort(a); err == nil {
			opts.Sort = order
			continue
		}
		opts.Filter = model.NormalizeTicker(a)
	}
	return notifier.FormatReport(s.report(s.ledger.Tranches(), opts))
}

func (s *Scheduler) cmdAdd(ctx context.Context, args []string) string {
	if len(args) < 4 {
		return "Usage: /add TICKER MM/DD/YYYY PRICE BENCH [SHARES]"
	}
	in := ledger.AddInput{Ticker: args[0], Date: args[1], PurchasePrice: args[2], BenchmarkPrice: args[3]}
	if len(args) > 4 {
		in.Shares = args[4]
	}
	t, err := s.ledger.Add(ctx, in)
	if err != nil {
		return "❌ " + html.EscapeString(err.Error())
	}
	s.recordEvent(ctx, &recorder.TrancheEvent{
		Action: "add", TrancheID: t.ID, Ticker: t.Ticker,
		Detail: fmt.Sprintf("%s @ %.2f bench %.2f", t.Date, t.PurchasePrice, t.BenchmarkPrice),
	})
	return fmt.Sprintf("✅ Added #%s %s %s @ $%.2f", t.ID, t.Ticker, notifier.FormatDate(t.Date), t.PurchasePrice)
}

func (s *Scheduler) cmdUpdate(ctx context.Context, args []string) string {
	if len(args) < 2 {
		return "Usage: /update ID price|bench|shares VALUE"
	}
	field, ok := fieldAliases[args[1]]
	if !ok {
		field = args[1]
	}
	value := ""
	if len(args) > 2 {
		value = args[2]
	}
	id := model.TrancheID(args[0])
	changed, err := s.ledger.Update(ctx, id, field, value)
	return s.mutationReply(ctx, "update", id, field+"="+value, changed, err)
}

func (s *Scheduler) cmdDate(ctx context.Context, args []string) string {
	if len(args) != 2 {
		return "Usage: /date ID MM/DD/YYYY"
	}
	id := model.TrancheID(args[0])
	changed, err := s.ledger.UpdateDate(ctx, id, args[1])
	return s.mutationReply(ctx, "date", id, args[1], changed, err)
}

func (s *Scheduler) cmdDelete(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return "Usage: /delete ID"
	}
	id := model.TrancheID(args[0])
	changed, err := s.ledger.Delete(ctx, id)
	return s.mutationReply(ctx, "delete", id, "", changed, err)
}

// mutationReply records applied edits and renders the outcome. An edit that
// was applied in memory but failed to persist is still recorded.
func (s *Scheduler) mutationReply(ctx context.Context, action string, id model.TrancheID, detail string, changed bool, err error) string {
	if changed {
		s.recordEvent(ctx, &recorder.TrancheEvent{Action: action, TrancheID: id, Detail: detail})
	}
	switch {
	case err != nil && errors.Is(err, ledger.ErrPersist):
		return "⚠️ Applied locally but not saved: " + html.EscapeString(err.Error())
	case err != nil:
		return "❌ " + html.EscapeString(err.Error())
	case !changed:
		return fmt.Sprintf("Nothing changed for #%s (unknown id or invalid value).", html.EscapeString(string(id)))
	default:
		return fmt.Sprintf("✅ %s #%s", strings.ToUpper(action[:1])+action[1:], id)
	}
}

func (s *Scheduler) trackedAndOverridden() []string {
	tickers := portfolio.Tickers(s.ledger.Tranches())
	seen := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		seen[t] = true
	}
	for _, t := range s.thresholds.Overridden() {
		if !seen[t] {
			tickers = append(tickers, t)
		}
	}
	return tickers
}

func (s *Scheduler) cmdThresholds() string {
	if s.thresholds == nil {
		return "Thresholds are not configured."
	}
	return notifier.FormatThresholds(s.trackedAndOverridden(), s.thresholds.Get)
}

// cmdThreshold takes percentages, e.g. "/threshold GLD -15 30".
func (s *Scheduler) cmdThreshold(args []string) string {
	if s.thresholds == nil {
		return "Thresholds are not configured."
	}
	if len(args) == 2 && strings.EqualFold(args[1], "reset") {
		ticker := model.NormalizeTicker(args[0])
		removed, err := s.thresholds.Reset(ticker)
		if err != nil {
			return "❌ " + html.EscapeString(err.Error())
		}
		if !removed {
			return fmt.Sprintf("%s has no override.", ticker)
		}
		return fmt.Sprintf("✅ %s threshold reset", ticker)
	}
	if len(args) != 3 {
		return "Usage: /threshold TICKER ADD% TRIM% | /threshold TICKER reset"
	}
	add, err1 := strconv.ParseFloat(strings.TrimSuffix(args[1], "%"), 64)
	trim, err2 := strconv.ParseFloat(strings.TrimSuffix(args[2], "%"), 64)
	if err1 != nil || err2 != nil {
		return "❌ thresholds must be numbers, e.g. /threshold GLD -20 40"
	}
	ticker := model.NormalizeTicker(args[0])
	th := model.AlertThreshold{AddPct: add / 100, TrimPct: trim / 100}
	if err := s.thresholds.Set(ticker, th); err != nil {
		return "❌ " + html.EscapeString(err.Error())
	}
	return notifier.FormatThresholds([]string{ticker}, s.thresholds.Get)
}

func (s *Scheduler) cmdHistory(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Usage: /history TICKER [N]"
	}
	ticker := model.NormalizeTicker(args[0])
	limit := 10
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
			limit = n
		}
	}
	points, err := s.recorder.History(ctx, ticker, limit)
	if err != nil {
		return "❌ " + html.EscapeString(err.Error())
	}
	if len(points) == 0 {
		return fmt.Sprintf("No history for %s.", ticker)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🕘 <b>%s history</b>\n", ticker))
	for _, p := range points {
		price, score := notifier.Placeholder, notifier.Placeholder
		if p.Price != nil {
			price = fmt.Sprintf("$%.2f", *p.Price)
		}
		if p.Score != nil {
			score = fmt.Sprintf("%+d %s", *p.Score, p.Label)
		}
		b.WriteString(fmt.Sprintf("  %s  %s  %s\n", p.At.Format("01/02/2006 15:04"), price, score))
	}
	return b.String()
}

func (s *Scheduler) cmdDismiss(args []string) string {
	if len(args) != 1 {
		return "Usage: /dismiss FINGERPRINT|all"
	}
	if args[0] == "all" {
		s.center.DismissAll()
		return "✅ All notices dismissed"
	}
	if !s.center.Dismiss(args[0]) {
		return "No such notice."
	}
	return "✅ Dismissed"
}

func (s *Scheduler) cmdStatus() string {
	var b strings.Builder
	b.WriteString("ℹ️ <b>Status</b>\n")
	b.WriteString(fmt.Sprintf("  Store: %s (%s)\n", s.ledger.Backend(), s.ledger.State()))
	b.WriteString(fmt.Sprintf("  Tranches: %d\n", len(s.ledger.Tranches())))
	if at := s.state.RefreshedAt(); at.IsZero() {
		b.WriteString("  Last refresh: never\n")
	} else {
		b.WriteString(fmt.Sprintf("  Last refresh: %s\n", at.Format("01/02/2006 15:04")))
	}
	b.WriteString(fmt.Sprintf("  Active notices: %d\n", len(s.center.Active())))
	return b.String()
}
