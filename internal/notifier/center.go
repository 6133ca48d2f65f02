package notifier

import (
	"strings"
	"sync"
	"time"
)

// Kind classifies a notice.
type Kind string

const (
	KindRateLimit Kind = "rate-limit"
	KindNoData    Kind = "no-data"
	KindTransport Kind = "transport"
	KindPersist   Kind = "persist"
	KindDegraded  Kind = "degraded"
)

// Notice is a dismissible, non-fatal condition surfaced to the user.
// Notices with the same Fingerprint are the same condition.
type Notice struct {
	Fingerprint string
	Kind        Kind
	Message     string
	Tickers     []string
	PostedAt    time.Time
}

// Center deduplicates notices by fingerprint until they are dismissed.
type Center struct {
	mu      sync.Mutex
	active  map[string]*Notice
	order   []string
	forward func(Notice)
	now     func() time.Time
}

// NewCenter creates a Center. forward, if non-nil, receives each notice the
// first time its fingerprint is posted, and again whenever a rate-limit
// notice gains tickers.
func NewCenter(forward func(Notice)) *Center {
	return &Center{
		active:  make(map[string]*Notice),
		forward: forward,
		now:     time.Now,
	}
}

// Post records a notice and reports whether it was new. Posting an active
// fingerprint again merges its tickers instead of adding a second notice.
func (c *Center) Post(n Notice) bool {
	c.mu.Lock()
	existing, ok := c.active[n.Fingerprint]
	if ok {
		added := mergeTickers(existing, n.Tickers)
		if added && existing.Kind == KindRateLimit {
			existing.Message = RateLimitMessage(existing.Tickers)
		}
		snapshot := cloneNotice(existing)
		c.mu.Unlock()
		if added && snapshot.Kind == KindRateLimit && c.forward != nil {
			c.forward(snapshot)
		}
		return false
	}
	n.PostedAt = c.now()
	n.Tickers = append([]string(nil), n.Tickers...)
	c.active[n.Fingerprint] = &n
	c.order = append(c.order, n.Fingerprint)
	c.mu.Unlock()

	if c.forward != nil {
		c.forward(cloneNotice(&n))
	}
	return true
}

// Dismiss removes a notice so that the condition may be reported again.
func (c *Center) Dismiss(fingerprint string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.active[fingerprint]; !ok {
		return false
	}
	delete(c.active, fingerprint)
	for i, fp := range c.order {
		if fp == fingerprint {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// DismissAll clears every notice.
func (c *Center) DismissAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = make(map[string]*Notice)
	c.order = nil
}

// Active returns the current notices in posting order.
func (c *Center) Active() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, 0, len(c.order))
	for _, fp := range c.order {
		out = append(out, cloneNotice(c.active[fp]))
	}
	return out
}

// RateLimitMessage describes a rate-limit condition across tickers.
func RateLimitMessage(tickers []string) string {
	return "Rate limited by price provider for: " + strings.Join(tickers, ", ") + ". Try refreshing again later."
}

func mergeTickers(n *Notice, tickers []string) bool {
	seen := make(map[string]bool, len(n.Tickers))
	for _, t := range n.Tickers {
		seen[t] = true
	}
	added := false
	for _, t := range tickers {
		if !seen[t] {
			seen[t] = true
			n.Tickers = append(n.Tickers, t)
			added = true
		}
	}
	return added
}

func cloneNotice(n *Notice) Notice {
	c := *n
	c.Tickers = append([]string(nil), n.Tickers...)
	return c
}
