package backtest

import (
	"math"
	"reflect"
	"testing"
	"time"

	"marketpulse/internal/domain"
)

var testBase = time.Date(2025, 4, 21, 0, 0, 0, 0, time.UTC)

// day returns the n-th calendar day of the test range.
func day(n int) time.Time {
	return testBase.AddDate(0, 0, n)
}

// series builds a daily PriceSeries from closes, starting at day(0).
func series(closes ...float64) domain.PriceSeries {
	s := make(domain.PriceSeries, 0, len(closes))
	for i, c := range closes {
		s = append(s, domain.PricePoint{Timestamp: day(i), Close: c})
	}
	return s
}

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func TestRunEmptyAlignment(t *testing.T) {
	a := domain.PriceSeries{
		{Timestamp: day(0), Close: 100},
		{Timestamp: day(2), Close: 101},
	}
	b := domain.PriceSeries{
		{Timestamp: day(1), Close: 50},
		{Timestamp: day(3), Close: 51},
	}

	res := Run(a, b, NewCycleSignal(nil, "SPY", "GLD"), DefaultParams())
	if len(res.Timestamps) != 0 || len(res.Values) != 0 || len(res.Transactions) != 0 {
		t.Errorf("disjoint series should yield empty result, got %d timestamps, %d values, %d transactions",
			len(res.Timestamps), len(res.Values), len(res.Transactions))
	}

	res = Run(nil, b, NewCycleSignal(nil, "SPY", "GLD"), DefaultParams())
	if len(res.Timestamps) != 0 {
		t.Errorf("empty first series should yield empty result, got %d timestamps", len(res.Timestamps))
	}
}

func TestRunSingleDateUnaffordable(t *testing.T) {
	// Price exceeds sleeve cash for both assets: no trades, flat value.
	date := time.Date(2025, 4, 23, 0, 0, 0, 0, time.UTC)
	s := domain.PriceSeries{{Timestamp: date, Close: 10000}}

	sig := NewCycleSignal([]time.Time{date}, "SPY", "GLD")
	res := Run(s, s, sig, DefaultParams())

	if len(res.Timestamps) != 1 || !res.Timestamps[0].Equal(date) {
		t.Fatalf("Timestamps = %v, want [%s]", res.Timestamps, date)
	}
	if len(res.Values) != 1 || res.Values[0] != 10000.0 {
		t.Errorf("Values = %v, want [10000]", res.Values)
	}
	if len(res.Transactions) != 0 {
		t.Errorf("Transactions = %v, want empty", res.Transactions)
	}
}

func TestRunBuyOnBullishSentiment(t *testing.T) {
	// Asset A bullish on the first date via a custom signal; price low
	// enough to afford shares.
	sig := SignalFunc(func(_ time.Time, symbol string) float64 {
		if symbol == "SPY" {
			return 0.5
		}
		return 0
	})

	a := series(100, 100)
	b := series(5000, 5000) // neutral score keeps asset B flat

	res := Run(a, b, sig, DefaultParams())

	if len(res.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(res.Transactions))
	}
	tx := res.Transactions[0]
	if tx.Action != domain.ActionBuy || tx.Symbol != "SPY" {
		t.Errorf("transaction = %s %s, want Buy SPY", tx.Action, tx.Symbol)
	}
	if !tx.Date.Equal(day(0)) {
		t.Errorf("buy date = %s, want %s", tx.Date, day(0))
	}
	// floor((10000/2 - 100) / 100) = 49 whole units.
	if tx.Shares != 49 {
		t.Errorf("shares = %d, want 49", tx.Shares)
	}
	if !approx(tx.Value, 4900) {
		t.Errorf("value = %v, want 4900", tx.Value)
	}
	if tx.ReturnPct != nil {
		t.Error("buy transaction should not carry a return")
	}
}

func TestRunWalkForward(t *testing.T) {
	// Six daily steps through the full 5-phase sentiment cycle with the
	// reference parameters. Expected path, hand-computed:
	//
	//	d0  GLD bullish      -> Buy  98 @ 50  (cash 4900 -> 0)
	//	d1  GLD ret +12%     -> Take Profit 98 @ 56 (cash 5488)
	//	d2  SPY bullish      -> Buy  49 @ 100
	//	d3  SPY ret -5%      -> Stop Loss 49 @ 95 (cash 4655)
	//	d4  neutral          -> no action
	//	d5  GLD bullish      -> Buy 109 @ 50 (cash 5488 -> 38)
	a := series(100, 100, 100, 95, 95, 90)
	b := series(50, 56, 57, 50, 50, 50)

	p := DefaultParams()
	sig := NewCycleSignal(AlignedTimestamps(a, b), p.SymbolA, p.SymbolB)
	res := Run(a, b, sig, p)

	wantValues := []float64{10000, 10588, 10588, 10343, 10343, 10343}
	if len(res.Values) != len(wantValues) {
		t.Fatalf("got %d values, want %d", len(res.Values), len(wantValues))
	}
	for i, want := range wantValues {
		if !approx(res.Values[i], want) {
			t.Errorf("value[%d] = %v, want %v", i, res.Values[i], want)
		}
	}

	type wantTx struct {
		day    int
		symbol string
		action domain.Action
		shares int64
		price  float64
		value  float64
	}
	wantTxs := []wantTx{
		{0, "GLD", domain.ActionBuy, 98, 50, 4900},
		{1, "GLD", domain.ActionTakeProfit, 98, 56, 5488},
		{2, "SPY", domain.ActionBuy, 49, 100, 4900},
		{3, "SPY", domain.ActionStopLoss, 49, 95, 4655},
		{5, "GLD", domain.ActionBuy, 109, 50, 5450},
	}
	if len(res.Transactions) != len(wantTxs) {
		t.Fatalf("got %d transactions, want %d: %+v", len(res.Transactions), len(wantTxs), res.Transactions)
	}
	for i, want := range wantTxs {
		got := res.Transactions[i]
		if !got.Date.Equal(day(want.day)) {
			t.Errorf("tx[%d] date = %s, want %s", i, got.Date, day(want.day))
		}
		if got.Symbol != want.symbol || got.Action != want.action {
			t.Errorf("tx[%d] = %s %s, want %s %s", i, got.Symbol, got.Action, want.symbol, want.action)
		}
		if got.Shares != want.shares {
			t.Errorf("tx[%d] shares = %d, want %d", i, got.Shares, want.shares)
		}
		if !approx(got.Price, want.price) || !approx(got.Value, want.value) {
			t.Errorf("tx[%d] price/value = %v/%v, want %v/%v", i, got.Price, got.Value, want.price, want.value)
		}
		if want.action == domain.ActionBuy && got.ReturnPct != nil {
			t.Errorf("tx[%d] buy should not carry a return", i)
		}
		if want.action.IsExit() && got.ReturnPct == nil {
			t.Errorf("tx[%d] exit should carry a return", i)
		}
	}

	// Realized returns on the two exits.
	if got := *res.Transactions[1].ReturnPct; !approx(got, 12) {
		t.Errorf("take-profit return = %v, want 12", got)
	}
	if got := *res.Transactions[3].ReturnPct; !approx(got, -5) {
		t.Errorf("stop-loss return = %v, want -5", got)
	}
}

func TestRunConservation(t *testing.T) {
	// Every snapshot equals the replayed sleeve state: cash moves only
	// through recorded transactions, shares only mark to market.
	a := series(100, 100, 100, 95, 95, 90)
	b := series(50, 56, 57, 50, 50, 50)

	p := DefaultParams()
	sig := NewCycleSignal(AlignedTimestamps(a, b), p.SymbolA, p.SymbolB)
	res := Run(a, b, sig, p)

	cash := map[string]float64{
		p.SymbolA: p.InitialCapital/2 - p.Reserve,
		p.SymbolB: p.InitialCapital/2 - p.Reserve,
	}
	shares := map[string]int64{}

	txIdx := 0
	for i, ts := range res.Timestamps {
		for txIdx < len(res.Transactions) && res.Transactions[txIdx].Date.Equal(ts) {
			tx := res.Transactions[txIdx]
			if tx.Action == domain.ActionBuy {
				cash[tx.Symbol] -= tx.Value
				shares[tx.Symbol] += tx.Shares
			} else {
				cash[tx.Symbol] += tx.Value
				shares[tx.Symbol] -= tx.Shares
			}
			if cash[tx.Symbol] < 0 {
				t.Fatalf("tx %d drove %s cash negative: %v", txIdx, tx.Symbol, cash[tx.Symbol])
			}
			if shares[tx.Symbol] < 0 {
				t.Fatalf("tx %d drove %s shares negative: %d", txIdx, tx.Symbol, shares[tx.Symbol])
			}
			txIdx++
		}

		want := cash[p.SymbolA] + float64(shares[p.SymbolA])*a[i].Close + p.Reserve +
			cash[p.SymbolB] + float64(shares[p.SymbolB])*b[i].Close + p.Reserve
		if !approx(res.Values[i], want) {
			t.Errorf("value[%d] = %v, replayed state says %v", i, res.Values[i], want)
		}
	}
	if txIdx != len(res.Transactions) {
		t.Errorf("replayed %d transactions, ledger has %d", txIdx, len(res.Transactions))
	}
}

func TestRunTakeProfitPrecedence(t *testing.T) {
	// Degenerate configuration where both exit conditions hold at once
	// (negative stop-loss ratio). First match wins: Take Profit.
	p := DefaultParams()
	p.TakeProfit = 0.05
	p.StopLoss = -0.10

	sig := SignalFunc(func(date time.Time, symbol string) float64 {
		if symbol == "SPY" && date.Equal(day(0)) {
			return 0.5
		}
		return 0
	})

	a := series(100, 108) // ret +8%: >= 0.05 and <= 0.10, both branches satisfied
	b := series(5000, 5000)

	res := Run(a, b, sig, p)

	if len(res.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(res.Transactions))
	}
	exit := res.Transactions[1]
	if exit.Action != domain.ActionTakeProfit {
		t.Errorf("exit action = %q, want %q", exit.Action, domain.ActionTakeProfit)
	}
}

func TestRunSentimentSellKeepsLabel(t *testing.T) {
	// A bearish-sentiment exit below the stop-loss boundary is still a
	// Sell: the label reflects the rule that fired, not the return.
	p := DefaultParams()
	p.StopLoss = 0.5 // wide enough that -40% does not trip it

	sig := SignalFunc(func(date time.Time, symbol string) float64 {
		if symbol != "SPY" {
			return 0
		}
		if date.Equal(day(0)) {
			return 0.5
		}
		return -0.9
	})

	a := series(100, 60)
	b := series(5000, 5000)

	res := Run(a, b, sig, p)

	if len(res.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(res.Transactions))
	}
	exit := res.Transactions[1]
	if exit.Action != domain.ActionSell {
		t.Errorf("exit action = %q, want %q", exit.Action, domain.ActionSell)
	}
	if exit.ReturnPct == nil || !approx(*exit.ReturnPct, -40) {
		t.Errorf("sell return = %v, want -40", exit.ReturnPct)
	}
}

func TestRunNoReentrySameTimestamp(t *testing.T) {
	// A take-profit close on a bullish date must not re-enter at the same
	// timestamp.
	sig := SignalFunc(func(_ time.Time, symbol string) float64 {
		if symbol == "SPY" {
			return 0.5 // always bullish
		}
		return 0
	})

	a := series(100, 120, 120)
	b := series(5000, 5000, 5000)

	res := Run(a, b, sig, DefaultParams())

	// d0 Buy, d1 Take Profit (+20%), d2 Buy again, but never two
	// transactions on d1.
	if len(res.Transactions) != 3 {
		t.Fatalf("got %d transactions, want 3: %+v", len(res.Transactions), res.Transactions)
	}
	if res.Transactions[1].Action != domain.ActionTakeProfit || !res.Transactions[1].Date.Equal(day(1)) {
		t.Errorf("tx[1] = %s on %s, want Take Profit on %s", res.Transactions[1].Action, res.Transactions[1].Date, day(1))
	}
	if res.Transactions[2].Action != domain.ActionBuy || !res.Transactions[2].Date.Equal(day(2)) {
		t.Errorf("tx[2] = %s on %s, want Buy on %s", res.Transactions[2].Action, res.Transactions[2].Date, day(2))
	}
}

func TestRunDeterminism(t *testing.T) {
	a := series(100, 100, 100, 95, 95, 90)
	b := series(50, 56, 57, 50, 50, 50)

	p := DefaultParams()
	sig := NewCycleSignal(AlignedTimestamps(a, b), p.SymbolA, p.SymbolB)

	first := Run(a, b, sig, p)
	second := Run(a, b, sig, p)

	if !reflect.DeepEqual(first.Timestamps, second.Timestamps) {
		t.Error("timestamps differ between identical runs")
	}
	if !reflect.DeepEqual(first.Values, second.Values) {
		t.Error("values differ between identical runs")
	}
	if len(first.Transactions) != len(second.Transactions) {
		t.Fatalf("transaction counts differ: %d vs %d", len(first.Transactions), len(second.Transactions))
	}
	for i := range first.Transactions {
		f, s := first.Transactions[i], second.Transactions[i]
		if f.Date != s.Date || f.Symbol != s.Symbol || f.Action != s.Action ||
			f.Shares != s.Shares || f.Price != s.Price || f.Value != s.Value {
			t.Errorf("transaction %d differs between runs", i)
		}
	}
}

func TestAlignedTimestamps(t *testing.T) {
	a := domain.PriceSeries{
		{Timestamp: day(0), Close: 1},
		{Timestamp: day(1), Close: 1},
		{Timestamp: day(3), Close: 1},
	}
	b := domain.PriceSeries{
		{Timestamp: day(1), Close: 1},
		{Timestamp: day(2), Close: 1},
		{Timestamp: day(3), Close: 1},
	}

	got := AlignedTimestamps(a, b)
	want := []time.Time{day(1), day(3)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AlignedTimestamps = %v, want %v", got, want)
	}
}
