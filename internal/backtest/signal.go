package backtest

import (
	"sort"
	"time"
)

// Signal supplies a sentiment score for an asset on a calendar date. Scores
// are bounded scalars; implementations must be defined for every date in the
// aligned price series and must be pure lookups with no side effects.
type Signal interface {
	Score(date time.Time, symbol string) float64
}

// SignalFunc adapts a plain function to the Signal interface.
type SignalFunc func(date time.Time, symbol string) float64

// Score calls f.
func (f SignalFunc) Score(date time.Time, symbol string) float64 {
	return f(date, symbol)
}

// cycleScore holds the per-phase scores for the two assets.
type cycleScore struct {
	a, b float64
}

// CycleSignal is the synthetic alternating sentiment generator. Each distinct
// calendar date is assigned a phase from its zero-based index in sorted
// order, repeating every 5 dates:
//
//	phase 0-1: asset A -0.2, asset B +0.2
//	phase 2-3: asset A +0.2, asset B -0.2
//	phase 4:   both 0.0
//
// Dates outside the construction set score 0 for both assets, as do symbols
// other than the two it was built for.
type CycleSignal struct {
	symbolA string
	symbolB string
	scores  map[time.Time]cycleScore
}

var _ Signal = (*CycleSignal)(nil)

// NewCycleSignal builds a CycleSignal over the distinct calendar dates of the
// given timestamps. Intraday timestamps collapse to their calendar date.
func NewCycleSignal(timestamps []time.Time, symbolA, symbolB string) *CycleSignal {
	set := make(map[time.Time]struct{}, len(timestamps))
	for _, ts := range timestamps {
		set[dateOf(ts)] = struct{}{}
	}

	dates := make([]time.Time, 0, len(set))
	for d := range set {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	scores := make(map[time.Time]cycleScore, len(dates))
	for i, d := range dates {
		var a float64
		switch phase := i % 5; {
		case phase < 2:
			a = -0.2
		case phase < 4:
			a = 0.2
		default:
			a = 0.0
		}
		scores[d] = cycleScore{a: a, b: -a}
	}

	return &CycleSignal{symbolA: symbolA, symbolB: symbolB, scores: scores}
}

// Score returns the synthetic sentiment for the asset on the given date.
func (s *CycleSignal) Score(date time.Time, symbol string) float64 {
	sc, ok := s.scores[dateOf(date)]
	if !ok {
		return 0
	}
	switch symbol {
	case s.symbolA:
		return sc.a
	case s.symbolB:
		return sc.b
	}
	return 0
}

// dateOf truncates a timestamp to its calendar date in UTC.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
