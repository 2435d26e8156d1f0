// Package marketpulse provides a Go SDK for the marketpulse dashboard API.
package marketpulse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client talks to a running marketpulse-server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL (for example
// "http://localhost:8080").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SeriesPoint is one close-price observation.
type SeriesPoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// Series is a symbol's close-price series.
type Series struct {
	Symbol string        `json:"symbol"`
	Points []SeriesPoint `json:"points"`
}

// Quote is the latest close for a symbol.
type Quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	AsOf   string  `json:"asOf"`
}

// Transaction is one ledger entry of a backtest run.
type Transaction struct {
	Date      time.Time `json:"date"`
	Symbol    string    `json:"symbol"`
	Action    string    `json:"action"`
	Shares    int64     `json:"shares"`
	Price     float64   `json:"price"`
	Value     float64   `json:"value"`
	ReturnPct *float64  `json:"returnPct,omitempty"`
}

// Metrics summarizes a backtest run.
type Metrics struct {
	TotalReturn     float64 `json:"totalReturn"`
	MaxDrawdown     float64 `json:"maxDrawdown"`
	AnnualizedStdev float64 `json:"annualizedStdev"`
	SharpeRatio     float64 `json:"sharpeRatio"`
	TotalTrades     int     `json:"totalTrades"`
	WinRate         float64 `json:"winRate"`
}

// BacktestResult is the full output of one simulator run.
type BacktestResult struct {
	SymbolA      string        `json:"symbolA"`
	SymbolB      string        `json:"symbolB"`
	Timestamps   []string      `json:"timestamps"`
	Values       []float64     `json:"values"`
	Transactions []Transaction `json:"transactions"`
	Metrics      Metrics       `json:"metrics"`
}

// BacktestOptions override the server's configured parameters. Zero-valued
// fields keep the server defaults.
type BacktestOptions struct {
	SymbolA        string
	SymbolB        string
	InitialCapital float64
	TakeProfit     float64
	StopLoss       float64
	OutputSize     int
}

// Sentiment is a scored headline set.
type Sentiment struct {
	Asset    string  `json:"asset,omitempty"`
	Score    float64 `json:"score"`
	Label    string  `json:"label"`
	Cached   bool    `json:"cached"`
	Articles []struct {
		Time     string  `json:"time"`
		Source   string  `json:"source"`
		Headline string  `json:"headline"`
		URL      string  `json:"url"`
		Score    float64 `json:"score"`
	} `json:"articles"`
}

// CityTime is the current time in one configured city.
type CityTime struct {
	Label string `json:"label"`
	Zone  string `json:"zone"`
	Time  string `json:"time"`
}

// MarketStatus describes the exchange session around now.
type MarketStatus struct {
	Open      bool   `json:"open"`
	NextOpen  string `json:"nextOpen"`
	NextClose string `json:"nextClose"`
}

// GetSeries retrieves the close-price series for a symbol.
func (c *Client) GetSeries(ctx context.Context, symbol string) (*Series, error) {
	var out Series
	if err := c.get(ctx, "/api/series/"+url.PathEscape(symbol), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetQuote retrieves the latest close for a symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	var out Quote
	if err := c.get(ctx, "/api/quote/"+url.PathEscape(symbol), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RunBacktest runs the simulator server-side.
func (c *Client) RunBacktest(ctx context.Context, opts BacktestOptions) (*BacktestResult, error) {
	q := url.Values{}
	if opts.SymbolA != "" {
		q.Set("a", opts.SymbolA)
	}
	if opts.SymbolB != "" {
		q.Set("b", opts.SymbolB)
	}
	if opts.InitialCapital > 0 {
		q.Set("initialCapital", strconv.FormatFloat(opts.InitialCapital, 'f', -1, 64))
	}
	if opts.TakeProfit > 0 {
		q.Set("takeProfit", strconv.FormatFloat(opts.TakeProfit, 'f', -1, 64))
	}
	if opts.StopLoss > 0 {
		q.Set("stopLoss", strconv.FormatFloat(opts.StopLoss, 'f', -1, 64))
	}
	if opts.OutputSize > 0 {
		q.Set("outputsize", strconv.Itoa(opts.OutputSize))
	}

	var out BacktestResult
	if err := c.get(ctx, "/api/backtest", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSentiment retrieves the scored market headlines.
func (c *Client) GetSentiment(ctx context.Context) (*Sentiment, error) {
	var out Sentiment
	if err := c.get(ctx, "/api/sentiment", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAssetSentiment retrieves the scored headlines for one asset.
func (c *Client) GetAssetSentiment(ctx context.Context, asset string) (*Sentiment, error) {
	var out Sentiment
	if err := c.get(ctx, "/api/sentiment/"+url.PathEscape(asset), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetClock retrieves the world clock.
func (c *Client) GetClock(ctx context.Context) ([]CityTime, error) {
	var out struct {
		Cities []CityTime `json:"cities"`
	}
	if err := c.get(ctx, "/api/clock", nil, &out); err != nil {
		return nil, err
	}
	return out.Cities, nil
}

// GetMarketStatus retrieves the exchange session status.
func (c *Client) GetMarketStatus(ctx context.Context) (*MarketStatus, error) {
	var out MarketStatus
	if err := c.get(ctx, "/api/market", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("marketpulse: %s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("marketpulse: status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
