package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"quotevault-api/pkg/market"
	"quotevault-api/pkg/timeline"
)

const (
	defaultBaseURL        = "https://query1.finance.yahoo.com"
	defaultRequestTimeout = 8 * time.Second
	defaultHTTPTimeout    = 15 * time.Second
)

func init() {
	market.RegisterProvider("yahoo", func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		opts := []Option{}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		if cfg.HTTPTimeout > 0 {
			opts = append(opts, WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
		}
		if len(cfg.SymbolMap) > 0 {
			opts = append(opts, WithSymbolMap(cfg.SymbolMap))
		}
		return NewClient(opts...), nil
	})
}

// Client fetches OHLCV data from the Yahoo Finance chart API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	symbolMap  map[string]string
}

// Option customises the Yahoo client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = base
		}
	}
}

// WithHTTPClient injects a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithSymbolMap installs service-symbol to Yahoo-ticker rewrites.
func WithSymbolMap(m map[string]string) Option {
	return func(c *Client) {
		c.symbolMap = m
	}
}

// NewClient constructs a Yahoo Finance provider.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		timeout:    defaultRequestTimeout,
		symbolMap: map[string]string{
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"SPX500": "^GSPC",
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ market.Provider = (*Client)(nil)

func (c *Client) ticker(symbol string) string {
	if mapped, ok := c.symbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// HistoricalData fetches OHLCV bars for the requested period and spacing.
func (c *Client) HistoricalData(ctx context.Context, symbol string, period market.Period, interval timeline.Interval) ([]timeline.Point, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.fetchChart(ctx, symbol, string(interval), string(period))
	if err != nil {
		return nil, err
	}
	points, err := c.decodePoints(result, interval)
	if err != nil {
		return nil, err
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })
	return points, nil
}

// LatestPrice returns the regular market price from chart metadata.
func (c *Client) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.fetchChart(ctx, symbol, "1d", "1d")
	if err != nil {
		return 0, err
	}
	if result.Meta.RegularMarketPrice > 0 {
		return result.Meta.RegularMarketPrice, nil
	}
	points, err := c.decodePoints(result, timeline.Interval1d)
	if err != nil {
		return 0, err
	}
	if len(points) == 0 {
		return 0, fmt.Errorf("yahoo: no price data for %s", symbol)
	}
	return points[len(points)-1].Close, nil
}

func (c *Client) fetchChart(ctx context.Context, symbol, interval, rng string) (*chartResult, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		c.baseURL, url.PathEscape(c.ticker(symbol)), url.QueryEscape(interval), url.QueryEscape(rng))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("yahoo request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read %s: %w", symbol, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo fetch %s: status %d", symbol, resp.StatusCode)
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode %s: %w", symbol, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo fetch %s: %s (%s)", symbol, chart.Chart.Error.Description, chart.Chart.Error.Code)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo fetch %s: empty result", symbol)
	}
	return &chart.Chart.Result[0], nil
}

func (c *Client) decodePoints(result *chartResult, interval timeline.Interval) ([]timeline.Point, error) {
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: missing quote block for %s", result.Meta.Symbol)
	}
	quote := result.Indicators.Quote[0]
	var adj []interface{}
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	points := make([]timeline.Point, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			break
		}
		open, okO := toFloat(quote.Open[i])
		high, okH := toFloat(quote.High[i])
		low, okL := toFloat(quote.Low[i])
		closePx, okC := toFloat(quote.Close[i])
		if !okO || !okH || !okL || !okC {
			// Halted or unfilled session slot.
			continue
		}
		adjClose := closePx
		if i < len(adj) {
			if v, ok := toFloat(adj[i]); ok {
				adjClose = v
			}
		}
		var volume int64
		if i < len(quote.Volume) {
			volume = toInt64(quote.Volume[i])
		}

		point, err := timeline.NewPoint(time.Unix(ts, 0).UTC(), open, high, low, closePx, adjClose, volume, interval, timeline.SourceYahoo)
		if err != nil {
			logx.Errorf("yahoo: dropping invalid bar for %s: %v", result.Meta.Symbol, err)
			continue
		}
		points = append(points, point)
	}
	return points, nil
}
