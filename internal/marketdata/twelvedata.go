package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"marketpulse/internal/domain"
	"marketpulse/internal/util"
)

// ---------------------------------------------------------------------------
// Compile-time interface checks
// ---------------------------------------------------------------------------

var _ Provider = (*TwelveDataClient)(nil)

// TwelveDataClient fetches bars from the Twelve Data time_series endpoint.
// The free tier is limited to 8 requests per minute, so every call goes
// through a token-bucket limiter.
type TwelveDataClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *util.RateLimiter
	log        *slog.Logger
}

// NewTwelveDataClient creates a client for the given API key and base URL
// (for example "https://api.twelvedata.com").
func NewTwelveDataClient(apiKey, baseURL string) *TwelveDataClient {
	return &TwelveDataClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    util.NewRateLimiter(8),
		log:        slog.Default().With("provider", "twelvedata"),
	}
}

// timeSeriesResponse mirrors the Twelve Data time_series payload. OHLCV
// fields arrive as strings; values are ordered newest first.
type timeSeriesResponse struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Values  []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
		Volume   string `json:"volume"`
	} `json:"values"`
}

// TimeSeries fetches up to outputSize bars for the symbol at the given
// interval. A symbol unknown to the upstream yields an empty slice, not an
// error.
func (c *TwelveDataClient) TimeSeries(ctx context.Context, symbol, interval string, outputSize int) ([]domain.Bar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("outputsize", strconv.Itoa(outputSize))
	q.Set("apikey", c.apiKey)
	u := c.baseURL + "/time_series?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twelvedata request: %w", err)
	}
	defer resp.Body.Close()

	var ts timeSeriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&ts); err != nil {
		return nil, fmt.Errorf("twelvedata decode: %w", err)
	}

	if ts.Status != "ok" {
		// 400/404 mean the symbol or range has no data; the dashboard
		// degrades to an empty panel rather than failing the page.
		if ts.Code == 400 || ts.Code == 404 {
			c.log.Warn("no data", "symbol", symbol, "message", ts.Message)
			return nil, nil
		}
		return nil, fmt.Errorf("twelvedata: %s (code %d)", ts.Message, ts.Code)
	}

	bars := make([]domain.Bar, 0, len(ts.Values))
	for _, v := range ts.Values {
		t, err := parseDatetime(v.Datetime)
		if err != nil {
			return nil, fmt.Errorf("twelvedata datetime %q: %w", v.Datetime, err)
		}
		open, err := strconv.ParseFloat(v.Open, 64)
		if err != nil {
			return nil, fmt.Errorf("twelvedata open %q: %w", v.Open, err)
		}
		high, err := strconv.ParseFloat(v.High, 64)
		if err != nil {
			return nil, fmt.Errorf("twelvedata high %q: %w", v.High, err)
		}
		low, err := strconv.ParseFloat(v.Low, 64)
		if err != nil {
			return nil, fmt.Errorf("twelvedata low %q: %w", v.Low, err)
		}
		closePx, err := strconv.ParseFloat(v.Close, 64)
		if err != nil {
			return nil, fmt.Errorf("twelvedata close %q: %w", v.Close, err)
		}
		var volume int64
		if v.Volume != "" {
			volume, err = strconv.ParseInt(v.Volume, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("twelvedata volume %q: %w", v.Volume, err)
			}
		}

		bars = append(bars, domain.Bar{
			Symbol:    symbol,
			Timestamp: t,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePx,
			Volume:    volume,
		})
	}

	// Upstream orders newest first.
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })

	return bars, nil
}

// parseDatetime accepts both the daily ("2006-01-02") and intraday
// ("2006-01-02 15:04:05") formats Twelve Data emits.
func parseDatetime(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
