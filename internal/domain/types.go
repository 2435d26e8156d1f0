// Package domain defines the core data types shared across the marketpulse
// platform: OHLCV bars, close-price series, and the trade ledger records
// produced by the backtest simulator.
package domain

import (
	"fmt"
	"time"
)

// Bar is a single OHLCV bar as returned by a market-data provider.
type Bar struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// PricePoint is one (timestamp, close) observation for an instrument.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Close     float64   `json:"close"`
}

// PriceSeries is an ordered sequence of price points for one instrument.
// Timestamps must be strictly increasing with no duplicates, and closes must
// be strictly positive before the series is handed to the simulator.
type PriceSeries []PricePoint

// Validate checks the series ordering and price invariants. The simulator
// itself does not guard against non-positive prices, so callers fetching
// data from external providers should validate first.
func (s PriceSeries) Validate() error {
	for i := range s {
		if s[i].Close <= 0 {
			return fmt.Errorf("non-positive close %v at %s", s[i].Close, s[i].Timestamp.Format(time.RFC3339))
		}
		if i > 0 && !s[i].Timestamp.After(s[i-1].Timestamp) {
			return fmt.Errorf("timestamps not strictly increasing at index %d (%s)", i, s[i].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

// Action identifies what triggered a ledger entry. The label reflects the
// rule that fired, not the realized return: a sentiment-driven exit below
// the stop-loss boundary is still recorded as a Sell.
type Action string

const (
	ActionBuy        Action = "Buy"
	ActionSell       Action = "Sell"
	ActionTakeProfit Action = "Take Profit"
	ActionStopLoss   Action = "Stop Loss"
)

// IsExit reports whether the action closes a position.
func (a Action) IsExit() bool {
	return a == ActionSell || a == ActionTakeProfit || a == ActionStopLoss
}

// Transaction is one immutable entry in the backtest ledger. ReturnPct is
// set only for exits (Sell, Take Profit, Stop Loss).
type Transaction struct {
	Date      time.Time `json:"date"`
	Symbol    string    `json:"symbol"`
	Action    Action    `json:"action"`
	Shares    int64     `json:"shares"`
	Price     float64   `json:"price"`
	Value     float64   `json:"value"`
	ReturnPct *float64  `json:"returnPct,omitempty"`
}

// Snapshot is the total portfolio value at one processed timestamp:
// cash + mark-to-market shares + reserve, summed across both sleeves.
type Snapshot struct {
	Date       time.Time `json:"date"`
	TotalValue float64   `json:"totalValue"`
}
