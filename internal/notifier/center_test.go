package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCenter_DedupsByFingerprint(t *testing.T) {
	var forwarded []Notice
	c := NewCenter(func(n Notice) { forwarded = append(forwarded, n) })

	assert.True(t, c.Post(Notice{Fingerprint: "no-data:XYZ", Kind: KindNoData, Message: "No data for XYZ"}))
	assert.False(t, c.Post(Notice{Fingerprint: "no-data:XYZ", Kind: KindNoData, Message: "No data for XYZ"}))
	assert.True(t, c.Post(Notice{Fingerprint: "persist:local:add", Kind: KindPersist}))

	active := c.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "no-data:XYZ", active[0].Fingerprint)
	assert.False(t, active[0].PostedAt.IsZero())
	assert.Len(t, forwarded, 2)
}

func TestCenter_RateLimitMergesTickers(t *testing.T) {
	var forwarded []Notice
	c := NewCenter(func(n Notice) { forwarded = append(forwarded, n) })

	c.Post(Notice{Fingerprint: "rate-limit", Kind: KindRateLimit, Tickers: []string{"GLD"}, Message: RateLimitMessage([]string{"GLD"})})
	c.Post(Notice{Fingerprint: "rate-limit", Kind: KindRateLimit, Tickers: []string{"GLD", "SLV"}})
	c.Post(Notice{Fingerprint: "rate-limit", Kind: KindRateLimit, Tickers: []string{"SLV"}})

	active := c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, []string{"GLD", "SLV"}, active[0].Tickers)
	assert.Contains(t, active[0].Message, "GLD, SLV")
	assert.Len(t, forwarded, 2, "only new tickers re-forward")
}

func TestCenter_Dismiss(t *testing.T) {
	c := NewCenter(nil)
	c.Post(Notice{Fingerprint: "a"})
	c.Post(Notice{Fingerprint: "b"})

	assert.True(t, c.Dismiss("a"))
	assert.False(t, c.Dismiss("a"))
	require.Len(t, c.Active(), 1)

	assert.True(t, c.Post(Notice{Fingerprint: "a"}), "dismissed conditions can recur")
	c.DismissAll()
	assert.Empty(t, c.Active())
}

func TestCenter_ActiveIsACopy(t *testing.T) {
	c := NewCenter(nil)
	c.Post(Notice{Fingerprint: "rate-limit", Kind: KindRateLimit, Tickers: []string{"DIA"}})
	c.Active()[0].Tickers[0] = "XXX"
	assert.Equal(t, []string{"DIA"}, c.Active()[0].Tickers)
}
