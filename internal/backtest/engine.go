// Package backtest implements the sentiment-driven two-asset strategy
// simulator: a single-pass walk over the aligned close-price series of two
// instruments, applying take-profit/stop-loss exits and sentiment-triggered
// entries and exits, producing a portfolio-value series and a transaction
// ledger.
package backtest

import (
	"math"
	"time"

	"marketpulse/internal/domain"
)

// Params is the complete, immutable configuration of one backtest run. It is
// passed explicitly into Run; no component re-declares its own defaults.
type Params struct {
	// InitialCapital is split evenly between the two sleeves.
	InitialCapital float64

	// TakeProfit and StopLoss are positive fractions. A held position is
	// closed when its unrealized return reaches TakeProfit or falls to
	// -StopLoss.
	TakeProfit float64
	StopLoss   float64

	// BullishThreshold and BearishThreshold are the sentiment cutoffs for
	// entries and exits. BearishThreshold is typically negative.
	BullishThreshold float64
	BearishThreshold float64

	// Reserve is carved out of each sleeve at initialization, never
	// invested, and added back into every valuation snapshot.
	Reserve float64

	SymbolA string
	SymbolB string
}

// DefaultParams returns the reference policy.
func DefaultParams() Params {
	return Params{
		InitialCapital:   10000,
		TakeProfit:       0.1175,
		StopLoss:         0.0225,
		BullishThreshold: 0.05,
		BearishThreshold: -0.3,
		Reserve:          100,
		SymbolA:          "SPY",
		SymbolB:          "GLD",
	}
}

// Result holds the three output sequences of a run. All three share the
// snapshot ordering of the aligned timestamps; Transactions is ordered by
// occurrence (asset A before asset B within a timestamp).
type Result struct {
	Timestamps   []time.Time
	Values       []float64
	Transactions []domain.Transaction
}

// sleeve is the per-asset position state. Invariant: holding is true iff
// shares > 0, and entry is meaningful only while holding.
type sleeve struct {
	symbol  string
	cash    float64
	reserve float64
	shares  int64
	entry   float64
	holding bool
}

// value marks the sleeve to market at the given price.
func (s *sleeve) value(price float64) float64 {
	return s.cash + float64(s.shares)*price + s.reserve
}

// close liquidates the full position at price, credits the proceeds, and
// returns the ledger entry. ret is the fractional return from entry.
func (s *sleeve) close(ts time.Time, price float64, action domain.Action, ret float64) domain.Transaction {
	proceeds := float64(s.shares) * price
	s.cash += proceeds
	pct := ret * 100
	tx := domain.Transaction{
		Date:      ts,
		Symbol:    s.symbol,
		Action:    action,
		Shares:    s.shares,
		Price:     price,
		Value:     proceeds,
		ReturnPct: &pct,
	}
	s.shares = 0
	s.entry = 0
	s.holding = false
	return tx
}

// step advances the sleeve through one aligned timestamp and returns the
// ledger with any transaction appended.
//
// Order of evaluation: take-profit, then stop-loss, then the sentiment
// branch. Take-profit is checked first so a simultaneous trigger under a
// degenerate ratio configuration is always reported as Take Profit. A
// position closed by take-profit or stop-loss is not re-entered or re-exited
// at the same timestamp.
func (s *sleeve) step(ts time.Time, price, score float64, p Params, ledger []domain.Transaction) []domain.Transaction {
	if s.holding {
		ret := (price - s.entry) / s.entry
		if ret >= p.TakeProfit {
			return append(ledger, s.close(ts, price, domain.ActionTakeProfit, ret))
		}
		if ret <= -p.StopLoss {
			return append(ledger, s.close(ts, price, domain.ActionStopLoss, ret))
		}
	}

	if score > p.BullishThreshold && !s.holding {
		shares := int64(math.Floor(s.cash / price))
		if shares > 0 {
			cost := float64(shares) * price
			s.cash -= cost
			s.shares = shares
			s.entry = price
			s.holding = true
			ledger = append(ledger, domain.Transaction{
				Date:   ts,
				Symbol: s.symbol,
				Action: domain.ActionBuy,
				Shares: shares,
				Price:  price,
				Value:  cost,
			})
		}
	} else if score < p.BearishThreshold && s.holding {
		// The label reflects the triggering rule: a sentiment exit is a
		// Sell even when the realized return sits beyond the stop-loss
		// boundary.
		ret := (price - s.entry) / s.entry
		ledger = append(ledger, s.close(ts, price, domain.ActionSell, ret))
	}

	return ledger
}

// alignedPoint is one inner-join row of the two series.
type alignedPoint struct {
	ts     time.Time
	priceA float64
	priceB float64
}

// align inner-joins the two series on exact timestamp equality. Both inputs
// are strictly increasing, so a linear merge suffices.
func align(a, b domain.PriceSeries) []alignedPoint {
	var out []alignedPoint
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Timestamp.Before(b[j].Timestamp):
			i++
		case b[j].Timestamp.Before(a[i].Timestamp):
			j++
		default:
			out = append(out, alignedPoint{ts: a[i].Timestamp, priceA: a[i].Close, priceB: b[j].Close})
			i++
			j++
		}
	}
	return out
}

// AlignedTimestamps returns the timestamps present in both series, in order.
// Callers use it to build a date-indexed Signal before running.
func AlignedTimestamps(a, b domain.PriceSeries) []time.Time {
	pts := align(a, b)
	out := make([]time.Time, 0, len(pts))
	for _, p := range pts {
		out = append(out, p.ts)
	}
	return out
}

// Run executes the simulator over the aligned timestamps of the two series.
// Timestamps unique to one series are dropped; an empty intersection yields
// an empty Result. The run is deterministic: identical inputs produce
// identical outputs.
//
// Prices must be strictly positive; a zero or negative close makes the
// return-ratio computation meaningless and is a caller precondition
// (domain.PriceSeries.Validate), not something Run guards against.
func Run(seriesA, seriesB domain.PriceSeries, sig Signal, p Params) Result {
	pts := align(seriesA, seriesB)

	var res Result
	if len(pts) == 0 {
		return res
	}

	half := p.InitialCapital / 2
	a := &sleeve{symbol: p.SymbolA, cash: half - p.Reserve, reserve: p.Reserve}
	b := &sleeve{symbol: p.SymbolB, cash: half - p.Reserve, reserve: p.Reserve}

	res.Timestamps = make([]time.Time, 0, len(pts))
	res.Values = make([]float64, 0, len(pts))

	for _, pt := range pts {
		// Asset A before asset B for deterministic ledger ordering.
		res.Transactions = a.step(pt.ts, pt.priceA, sig.Score(pt.ts, a.symbol), p, res.Transactions)
		res.Transactions = b.step(pt.ts, pt.priceB, sig.Score(pt.ts, b.symbol), p, res.Transactions)

		res.Timestamps = append(res.Timestamps, pt.ts)
		res.Values = append(res.Values, a.value(pt.priceA)+b.value(pt.priceB))
	}

	return res
}
