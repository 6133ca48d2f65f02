package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"TrancheTrack/internal/logging"
	"TrancheTrack/internal/model"

	"golang.org/x/time/rate"
)

const (
	DefaultPolygonURL       = "https://api.polygon.io"
	DefaultPolygonRateLimit = 5 // requests per minute, free tier
)

// PolygonFetcher implements Fetcher using the Polygon.io aggregates API.
type PolygonFetcher struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	logger  *logging.Logger
}

// PolygonOption configures a PolygonFetcher.
type PolygonOption func(*PolygonFetcher)

// WithPolygonURL overrides the API base URL.
func WithPolygonURL(baseURL string) PolygonOption {
	return func(f *PolygonFetcher) { f.baseURL = baseURL }
}

// WithPolygonRateLimit sets the request budget per minute.
func WithPolygonRateLimit(n int) PolygonOption {
	return func(f *PolygonFetcher) { f.limiter = perMinute(n) }
}

// WithPolygonProxy routes requests through proxyURL.
func WithPolygonProxy(proxyURL string) PolygonOption {
	return func(f *PolygonFetcher) { f.client = newHTTPClient(proxyURL) }
}

// WithPolygonLogger sets the logger.
func WithPolygonLogger(logger *logging.Logger) PolygonOption {
	return func(f *PolygonFetcher) { f.logger = logger }
}

// NewPolygonFetcher creates a fetcher authenticated with apiKey.
func NewPolygonFetcher(apiKey string, opts ...PolygonOption) *PolygonFetcher {
	f := &PolygonFetcher{
		baseURL: DefaultPolygonURL,
		apiKey:  apiKey,
		client:  newHTTPClient(""),
		limiter: perMinute(DefaultPolygonRateLimit),
		logger:  logging.NewSilent(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *PolygonFetcher) Name() string { return "polygon" }

// polygonAggs is the response shape shared by the prev and range endpoints.
type polygonAggs struct {
	Status       string `json:"status"`
	ResultsCount int    `json:"resultsCount"`
	Results      []struct {
		Open      float64 `json:"o"`
		High      float64 `json:"h"`
		Low       float64 `json:"l"`
		Close     float64 `json:"c"`
		Volume    float64 `json:"v"`
		Timestamp int64   `json:"t"`
	} `json:"results"`
}

func (f *PolygonFetcher) aggs(ctx context.Context, path string, params url.Values) ([]model.OHLCV, error) {
	params.Set("adjusted", "true")
	params.Set("apiKey", f.apiKey)
	reqURL := f.baseURL + path + "?" + params.Encode()

	var resp polygonAggs
	if err := getJSON(ctx, f.client, f.limiter, f.Name(), reqURL, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("polygon %s: %w", path, ErrNoData)
	}

	bars := make([]model.OHLCV, len(resp.Results))
	for i, r := range resp.Results {
		bars[i] = model.OHLCV{
			Time:   time.UnixMilli(r.Timestamp).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// FetchCurrentPrice returns the previous session's close.
func (f *PolygonFetcher) FetchCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	bars, err := f.aggs(ctx, "/v2/aggs/ticker/"+url.PathEscape(symbol)+"/prev", url.Values{})
	if err != nil {
		return 0, err
	}
	f.logger.Debug().Str("ticker", symbol).Float64("close", bars[len(bars)-1].Close).Msg("polygon price")
	return bars[len(bars)-1].Close, nil
}

func (f *PolygonFetcher) FetchDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]model.OHLCV, error) {
	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/1/day/%s/%s",
		url.PathEscape(symbol), from.Format(model.DateLayout), to.Format(model.DateLayout))
	params := url.Values{}
	params.Set("sort", "asc")
	params.Set("limit", "50000")
	return f.aggs(ctx, path, params)
}
