package notifier

import (
	"fmt"
	"html"
	"strings"

	"TrancheTrack/internal/dashboard"
	"TrancheTrack/internal/model"
)

// Placeholder renders an absent value.
const Placeholder = "—"

func money(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return fmt.Sprintf("$%.2f", *v)
}

func pct(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

func num(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return fmt.Sprintf("%.2f", *v)
}

// FormatDate turns a stored YYYY-MM-DD date into MM/DD/YYYY.
func FormatDate(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return date
	}
	return parts[1] + "/" + parts[2] + "/" + parts[0]
}

func sharesOf(t model.Tranche) string {
	if t.Shares == nil {
		return Placeholder
	}
	return fmt.Sprintf("%g", *t.Shares)
}

// bannerText follows the alert wording of the dashboard.
func bannerText(b dashboard.Banner) string {
	var label string
	switch b.Zone {
	case model.ZoneAdd:
		label = "Potential Add Signal"
	case model.ZoneTrim:
		label = "Consider Trim"
	default:
		label = "Within Normal Range"
	}
	return fmt.Sprintf("%s — %s — Current: $%.2f, Avg Cost: $%.2f (%+.1f%% from avg)",
		b.Ticker, label, b.Price, b.AvgCost, b.Oscillator*100)
}

// FormatReport renders the full tranche report.
func FormatReport(rep dashboard.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Tranche Report</b> | %s\n", rep.AsOf.Format("01/02/2006")))
	if rep.RefreshedAt.IsZero() {
		b.WriteString("Prices not refreshed yet\n")
	} else {
		b.WriteString(fmt.Sprintf("Last refresh: %s | Benchmark %s\n", rep.RefreshedAt.Format("01/02/2006 15:04"), money(rep.Benchmark)))
	}

	if len(rep.Banners) > 0 {
		b.WriteString("\n🔔 <b>Alerts</b>\n")
		for _, bn := range rep.Banners {
			b.WriteString("  " + bannerText(bn) + "\n")
		}
	}

	if len(rep.Groups) == 0 {
		b.WriteString("\nNo tranches. Use /add to get started.\n")
		return b.String()
	}

	for _, g := range rep.Groups {
		b.WriteString(fmt.Sprintf("\n<b>%s</b> %s\n", g.Ticker, money(g.Price)))
		for _, r := range g.Rows {
			m := r.Metrics
			b.WriteString(fmt.Sprintf("  #%s %s @ $%.2f ×%s | %dd | P&L %s (%s, ann %s) | Bench %s ann %s | α %s\n",
				r.Tranche.ID, FormatDate(r.Tranche.Date), r.Tranche.PurchasePrice, sharesOf(r.Tranche), m.DaysHeld,
				money(m.PnL), pct(m.PctPnL), pct(m.AnnPctPnL),
				pct(m.BenchmarkPctPnL), pct(m.BenchmarkAnnPctPnL), num(m.Alpha)))
		}

		plural := ""
		if len(g.Rows) > 1 {
			plural = "s"
		}
		b.WriteString(fmt.Sprintf("  Summary (%d tranche%s): Avg %s | α %s", len(g.Rows), plural, money(g.AvgCost), num(g.MeanAlpha)))
		if g.Partial {
			b.WriteString(" | ⚠️ partial share weights")
		}
		b.WriteString("\n")
		if g.Signal != nil {
			b.WriteString(fmt.Sprintf("  Signal: %s (%+d)\n", g.Signal.Label, g.Signal.Score))
		}
	}
	return b.String()
}

// FormatSignal renders one composite signal with its factor breakdown.
func FormatSignal(sig model.CompositeSignal) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>%s</b>: %s (%+d)\n", sig.Ticker, sig.Label, sig.Score))
	for _, f := range sig.Factors {
		b.WriteString(fmt.Sprintf("  %s (%s): %+d\n", f.Name, f.Commentary, f.Score))
	}
	return b.String()
}

// FormatRankings renders the ranked tickers, best first.
func FormatRankings(rankings []model.CompositeSignal) string {
	if len(rankings) == 0 {
		return "No priced tickers to rank. Use /refresh first."
	}
	var b strings.Builder
	b.WriteString("🏁 <b>Signal Ranking</b>\n\n")
	for i, sig := range rankings {
		b.WriteString(fmt.Sprintf("%d. %s  %+d  %s  osc %s\n", i+1, sig.Ticker, sig.Score, sig.Label, pct(sig.Oscillator)))
	}
	b.WriteString("\n")
	for _, sig := range rankings {
		b.WriteString(FormatSignal(sig))
	}
	return b.String()
}

// FormatTranches lists tranches with the ids used by /update and /delete.
func FormatTranches(ts []model.Tranche) string {
	if len(ts) == 0 {
		return "No tranches."
	}
	var b strings.Builder
	b.WriteString("📋 <b>Tranches</b>\n")
	for _, t := range ts {
		b.WriteString(fmt.Sprintf("  #%s %s %s @ $%.2f | bench $%.2f | shares %s\n",
			t.ID, t.Ticker, FormatDate(t.Date), t.PurchasePrice, t.BenchmarkPrice, sharesOf(t)))
	}
	return b.String()
}

// FormatThresholds renders the effective threshold per ticker.
func FormatThresholds(tickers []string, get func(string) model.AlertThreshold) string {
	var b strings.Builder
	b.WriteString("🎯 <b>Alert Thresholds</b>\n")
	for _, t := range tickers {
		th := get(t)
		b.WriteString(fmt.Sprintf("  %s: add ≤ %.1f%% | trim ≥ %+.1f%%\n", t, th.AddPct*100, th.TrimPct*100))
	}
	return b.String()
}

// FormatNotice renders a notice for chat delivery.
func FormatNotice(n Notice) string {
	icon := "⚠️"
	switch n.Kind {
	case KindRateLimit:
		icon = "⏳"
	case KindDegraded, KindPersist:
		icon = "💾"
	}
	return fmt.Sprintf("%s %s", icon, html.EscapeString(n.Message))
}

// FormatNotices lists active notices with their fingerprints for /dismiss.
func FormatNotices(ns []Notice) string {
	if len(ns) == 0 {
		return "No active notices."
	}
	var b strings.Builder
	for _, n := range ns {
		b.WriteString(fmt.Sprintf("%s\n  <code>%s</code>\n", FormatNotice(n), html.EscapeString(n.Fingerprint)))
	}
	return b.String()
}
