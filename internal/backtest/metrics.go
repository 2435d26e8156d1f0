package backtest

import (
	"math"

	"github.com/montanaflynn/stats"

	"marketpulse/internal/domain"
)

// tradingDaysPerYear is the conventional annualization factor for daily data.
const tradingDaysPerYear = 252

// Metrics summarizes a backtest run for display alongside the value series.
type Metrics struct {
	TotalReturn     float64 `json:"totalReturn"`
	MaxDrawdown     float64 `json:"maxDrawdown"`
	AnnualizedStdev float64 `json:"annualizedStdev"`
	SharpeRatio     float64 `json:"sharpeRatio"`
	TotalTrades     int     `json:"totalTrades"`
	WinRate         float64 `json:"winRate"`
}

// ComputeMetrics derives summary statistics from the snapshot values and the
// transaction ledger. Fewer than two snapshots yield zero return metrics;
// WinRate is the fraction of exits with a positive realized return.
func ComputeMetrics(values []float64, ledger []domain.Transaction) Metrics {
	var m Metrics

	m.TotalTrades = len(ledger)
	exits, wins := 0, 0
	for _, tx := range ledger {
		if !tx.Action.IsExit() || tx.ReturnPct == nil {
			continue
		}
		exits++
		if *tx.ReturnPct > 0 {
			wins++
		}
	}
	if exits > 0 {
		m.WinRate = float64(wins) / float64(exits)
	}

	if len(values) < 2 {
		return m
	}

	m.TotalReturn = values[len(values)-1]/values[0] - 1

	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] != 0 {
			returns = append(returns, values[i]/values[i-1]-1)
		}
	}

	if len(returns) >= 2 {
		stdev, err := stats.StandardDeviationSample(returns)
		if err == nil && stdev > 0 {
			m.AnnualizedStdev = stdev * math.Sqrt(tradingDaysPerYear)
			mean, err := stats.Mean(returns)
			if err == nil {
				m.SharpeRatio = mean / stdev * math.Sqrt(tradingDaysPerYear)
			}
		}
	}

	peak := values[0]
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > m.MaxDrawdown {
				m.MaxDrawdown = dd
			}
		}
	}

	return m
}
