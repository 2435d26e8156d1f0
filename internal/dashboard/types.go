package dashboard

import (
	"marketpulse/internal/backtest"
	"marketpulse/internal/calendar"
	"marketpulse/internal/domain"
	"marketpulse/internal/sentiment"
)

// SeriesPoint is one close-price observation in a series response.
type SeriesPoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// SeriesResponse is the payload of GET /api/series/{symbol}.
type SeriesResponse struct {
	Symbol string        `json:"symbol"`
	Points []SeriesPoint `json:"points"`
}

// QuoteResponse is the payload of GET /api/quote/{symbol}.
type QuoteResponse struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	AsOf   string  `json:"asOf"`
}

// CompareResponse is the payload of GET /api/compare: both series rebased to
// 100 at the first shared date.
type CompareResponse struct {
	SymbolA string    `json:"symbolA"`
	SymbolB string    `json:"symbolB"`
	Dates   []string  `json:"dates"`
	A       []float64 `json:"a"`
	B       []float64 `json:"b"`
}

// ScoredArticle is one headline with its polarity score.
type ScoredArticle struct {
	Time     string  `json:"time"`
	Source   string  `json:"source"`
	Headline string  `json:"headline"`
	URL      string  `json:"url"`
	Score    float64 `json:"score"`
}

// SentimentResponse is the payload of the sentiment endpoints.
type SentimentResponse struct {
	Asset    string          `json:"asset,omitempty"`
	Score    float64         `json:"score"`
	Label    sentiment.Label `json:"label"`
	Cached   bool            `json:"cached"`
	Articles []ScoredArticle `json:"articles"`
}

// BacktestResponse is the payload of GET /api/backtest.
type BacktestResponse struct {
	SymbolA      string               `json:"symbolA"`
	SymbolB      string               `json:"symbolB"`
	Timestamps   []string             `json:"timestamps"`
	Values       []float64            `json:"values"`
	Transactions []domain.Transaction `json:"transactions"`
	Metrics      backtest.Metrics     `json:"metrics"`
}

// ClockResponse is the payload of GET /api/clock.
type ClockResponse struct {
	Cities []calendar.CityTime `json:"cities"`
}

// MarketResponse is the payload of GET /api/market.
type MarketResponse struct {
	Open      bool   `json:"open"`
	NextOpen  string `json:"nextOpen"`
	NextClose string `json:"nextClose"`
}

// HolidaysResponse is the payload of GET /api/holidays/{year}.
type HolidaysResponse struct {
	Year     int                `json:"year"`
	Holidays []calendar.Holiday `json:"holidays"`
}
