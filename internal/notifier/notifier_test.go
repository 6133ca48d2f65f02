package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"TrancheTrack/internal/dashboard"
	"TrancheTrack/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "05/27/2025", FormatDate("2025-05-27"))
	assert.Equal(t, "garbage", FormatDate("garbage"))
}

func TestFormatReport_Placeholders(t *testing.T) {
	rep := dashboard.Report{
		AsOf: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Groups: []dashboard.GroupView{{
			Ticker:  "MRK",
			AvgCost: model.Float(77.12),
			Rows: []dashboard.Row{{
				Tranche: model.Tranche{ID: "7", Ticker: "MRK", Date: "2025-05-27", PurchasePrice: 77.12, BenchmarkPrice: 591.15},
				Metrics: model.TrancheMetrics{DaysHeld: 5},
			}},
		}},
	}
	out := FormatReport(rep)
	assert.Contains(t, out, "Prices not refreshed yet")
	assert.Contains(t, out, "#7 05/27/2025 @ $77.12 ×—")
	assert.Contains(t, out, "P&L — (—, ann —)")
	assert.Contains(t, out, "Summary (1 tranche): Avg $77.12 | α —")
	assert.NotContains(t, out, "Signal:")
}

func TestFormatReport_Values(t *testing.T) {
	sig := model.CompositeSignal{Ticker: "GLD", Score: 3, Label: model.LabelStrongBuy}
	rep := dashboard.Report{
		AsOf:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		RefreshedAt: time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
		Benchmark:   model.Float(600),
		Banners:     []dashboard.Banner{{Ticker: "GLD", Zone: model.ZoneAdd, Price: 150, AvgCost: 200, Oscillator: -0.25}},
		Groups: []dashboard.GroupView{{
			Ticker:    "GLD",
			Price:     model.Float(150),
			AvgCost:   model.Float(200),
			MeanAlpha: model.Float(-12.346),
			Partial:   true,
			Signal:    &sig,
			Rows: []dashboard.Row{
				{Tranche: model.Tranche{ID: "a", Date: "2024-01-01", PurchasePrice: 200, Shares: model.Float(25)},
					Metrics: model.TrancheMetrics{PnL: model.Float(-50), PctPnL: model.Float(-0.25), Alpha: model.Float(-12.346)}},
				{Tranche: model.Tranche{ID: "b", Date: "2024-02-01", PurchasePrice: 200}},
			},
		}},
	}
	out := FormatReport(rep)
	assert.Contains(t, out, "Last refresh: 06/01/2025 09:30 | Benchmark $600.00")
	assert.Contains(t, out, "GLD — Potential Add Signal — Current: $150.00, Avg Cost: $200.00 (-25.0% from avg)")
	assert.Contains(t, out, "P&L $-50.00 (-25.00%")
	assert.Contains(t, out, "×25 ")
	assert.Contains(t, out, "Summary (2 tranches): Avg $200.00 | α -12.35 | ⚠️ partial share weights")
	assert.Contains(t, out, "Signal: Strong Buy (+3)")
}

func TestFormatRankings(t *testing.T) {
	assert.Contains(t, FormatRankings(nil), "No priced tickers")

	out := FormatRankings([]model.CompositeSignal{
		{Ticker: "SLV", Score: 2, Label: model.LabelBuy, Oscillator: model.Float(-0.1),
			Factors: []model.FactorScore{{Name: "RSI(14)", Score: 1, Commentary: "28.0"}}},
		{Ticker: "DIA", Score: -1, Label: model.LabelSell},
	})
	assert.Contains(t, out, "1. SLV  +2  Buy  osc -10.00%")
	assert.Contains(t, out, "2. DIA  -1  Sell  osc —")
	assert.Contains(t, out, "  RSI(14) (28.0): +1")
}

func TestFormatNotice_Escapes(t *testing.T) {
	out := FormatNotice(Notice{Kind: KindTransport, Message: "status 502 <html>"})
	assert.Equal(t, "⚠️ status 502 &lt;html&gt;", out)
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))
	assert.Equal(t, []string{"aaaa", "bbbb", "cc"}, splitMessage("aaaa\nbbbb\ncc", 6))
	assert.Equal(t, []string{"abcdef", "ghij"}, splitMessage("abcdefghij", 6))
}

func TestTelegramSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegramNotifier("TOKEN", "42", "", nil)
	tg.BaseURL = srv.URL
	require.NoError(t, tg.Send(context.Background(), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, "hello", got["text"])
}

func TestTelegramPolling_IgnoresOtherChats(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var sent []string
	polls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if strings.HasSuffix(r.URL.Path, "/sendMessage") {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			sent = append(sent, body["text"])
			w.Write([]byte(`{"ok":true}`))
			return
		}
		polls++
		if polls > 1 {
			cancel()
			w.Write([]byte(`{"ok":true,"result":[]}`))
			return
		}
		w.Write([]byte(`{"ok":true,"result":[
			{"update_id":1,"message":{"text":"/signals","chat":{"id":99}}},
			{"update_id":2,"message":{"text":" /tranches ","chat":{"id":42}}}]}`))
	}))
	defer srv.Close()

	tg := NewTelegramNotifier("TOKEN", "42", "", nil)
	tg.BaseURL = srv.URL

	var handled []string
	tg.StartPolling(ctx, func(_ context.Context, cmd string) string {
		handled = append(handled, cmd)
		return "ok " + cmd
	})
	assert.Equal(t, []string{"/tranches"}, handled)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"ok /tranches"}, sent)
}
