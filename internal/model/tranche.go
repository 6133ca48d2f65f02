package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical storage format of a purchase date.
const DateLayout = "2006-01-02"

// TrancheID is an opaque record identity. Backends assign it; callers only
// compare it for equality.
type TrancheID string

// Tranche is one discrete purchase lot.
type Tranche struct {
	ID             TrancheID `json:"id"`
	Ticker         string    `json:"ticker"`
	Date           string    `json:"date"`
	PurchasePrice  float64   `json:"purchasePrice"`
	BenchmarkPrice float64   `json:"benchmarkPrice"`
	Shares         *float64  `json:"shares,omitempty"`
}

// NaturalKey identifies the economic event behind a tranche, independent of
// its storage identity.
type NaturalKey struct {
	Ticker string
	Date   string
	Price  string
}

func (k NaturalKey) String() string {
	return k.Ticker + "|" + k.Date + "|" + k.Price
}

// KeyOf builds the natural key for the given fields. The price is rounded
// half away from zero to two decimals.
func KeyOf(ticker, date string, price float64) NaturalKey {
	return NaturalKey{
		Ticker: ticker,
		Date:   date,
		Price:  decimal.NewFromFloat(price).StringFixed(2),
	}
}

// Key returns the tranche's natural key.
func (t Tranche) Key() NaturalKey {
	return KeyOf(t.Ticker, t.Date, t.PurchasePrice)
}

// HasShares reports whether the optional share count is populated.
func (t Tranche) HasShares() bool { return t.Shares != nil }

// Clone returns a copy that shares no memory with t.
func (t Tranche) Clone() Tranche {
	c := t
	if t.Shares != nil {
		s := *t.Shares
		c.Shares = &s
	}
	return c
}

// Patch is a field-level update. Nil fields are left untouched.
type Patch struct {
	PurchasePrice  *float64
	BenchmarkPrice *float64
	Date           *string
	Shares         *float64
	ClearShares    bool
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.PurchasePrice == nil && p.BenchmarkPrice == nil && p.Date == nil && p.Shares == nil && !p.ClearShares
}

// Apply writes the patch onto t.
func (p Patch) Apply(t *Tranche) {
	if p.PurchasePrice != nil {
		t.PurchasePrice = *p.PurchasePrice
	}
	if p.BenchmarkPrice != nil {
		t.BenchmarkPrice = *p.BenchmarkPrice
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.ClearShares {
		t.Shares = nil
	} else if p.Shares != nil {
		s := *p.Shares
		t.Shares = &s
	}
}

var usDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)

// ParseDate accepts YYYY-MM-DD or MM/DD/YYYY and returns the canonical
// YYYY-MM-DD form.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if m := usDate.FindStringSubmatch(s); m != nil {
		mm, _ := strconv.Atoi(m[1])
		dd, _ := strconv.Atoi(m[2])
		s = fmt.Sprintf("%s-%02d-%02d", m[3], mm, dd)
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q", s)
	}
	return d.Format(DateLayout), nil
}

// NormalizeTicker trims and uppercases a ticker symbol.
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
