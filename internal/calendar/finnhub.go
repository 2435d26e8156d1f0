package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"marketpulse/internal/util"
)

// FinnhubClient fetches the US exchange holiday feed.
type FinnhubClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewFinnhubClient creates a client for the given key and base URL (for
// example "https://finnhub.io/api/v1").
func NewFinnhubClient(apiKey, baseURL string) *FinnhubClient {
	return &FinnhubClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// holidayResponse mirrors the Finnhub market-holiday payload.
type holidayResponse struct {
	Data []struct {
		EventName   string `json:"eventName"`
		AtDate      string `json:"atDate"`
		TradingHour string `json:"tradingHour"`
	} `json:"data"`
	Exchange string `json:"exchange"`
}

// Holidays fetches the full holiday feed for the US exchange. The feed spans
// multiple years; callers filter by year. Transient failures are retried
// with backoff.
func (c *FinnhubClient) Holidays(ctx context.Context) ([]Holiday, error) {
	q := url.Values{}
	q.Set("exchange", "US")
	q.Set("token", c.apiKey)
	u := c.baseURL + "/stock/market-holiday?" + q.Encode()

	var hr holidayResponse
	err := util.Retry(ctx, 3, 500*time.Millisecond, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("finnhub request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("finnhub status %d", resp.StatusCode)
		}

		hr = holidayResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
			return fmt.Errorf("finnhub decode: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	holidays := make([]Holiday, 0, len(hr.Data))
	for _, d := range hr.Data {
		t, err := time.Parse("2006-01-02", d.AtDate)
		if err != nil {
			continue
		}
		holidays = append(holidays, Holiday{
			Date:         t.UTC(),
			Name:         d.EventName,
			TradingHours: d.TradingHour,
		})
	}
	return holidays, nil
}
