package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"TrancheTrack/internal/model"

	"golang.org/x/time/rate"
)

var (
	// ErrRateLimited is returned when the provider answers HTTP 429.
	ErrRateLimited = errors.New("rate limited")
	// ErrNoData is returned when the provider has nothing for the symbol.
	ErrNoData = errors.New("no data")
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchCurrentPrice(ctx context.Context, symbol string) (float64, error)
	FetchDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]model.OHLCV, error)
	Name() string
}

const defaultTimeout = 30 * time.Second

// newHTTPClient builds a client routed through proxyURL when set.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{Timeout: defaultTimeout, Transport: transport}
}

// perMinute converts a request budget to a limiter. Zero or less disables
// limiting.
func perMinute(n int) *rate.Limiter {
	if n <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
}

// getJSON performs a rate-limited GET and decodes the body into out.
func getJSON(ctx context.Context, client *http.Client, limiter *rate.Limiter, provider, reqURL string, out interface{}) error {
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s fetch: %w", provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s read body: %w", provider, err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", provider, ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", provider, ErrNoData)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s: status %d, body: %s", provider, resp.StatusCode, truncate(string(body), 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s decode: %w", provider, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
