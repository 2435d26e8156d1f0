package marketdata

import (
	"marketpulse/internal/domain"
)

// LatestClose returns the close of the most recent bar. ok is false for an
// empty slice.
func LatestClose(bars []domain.Bar) (price float64, ok bool) {
	if len(bars) == 0 {
		return 0, false
	}
	return bars[len(bars)-1].Close, true
}

// ToPriceSeries projects bars onto the close-price series the simulator
// consumes. Bars must already be sorted ascending.
func ToPriceSeries(bars []domain.Bar) domain.PriceSeries {
	s := make(domain.PriceSeries, 0, len(bars))
	for _, b := range bars {
		s = append(s, domain.PricePoint{Timestamp: b.Timestamp, Close: b.Close})
	}
	return s
}

// Normalize rebases the series to 100 at its first point, for comparative
// charting of instruments with different price levels. An empty series or a
// zero first close yields nil.
func Normalize(s domain.PriceSeries) []float64 {
	if len(s) == 0 || s[0].Close == 0 {
		return nil
	}
	out := make([]float64, 0, len(s))
	base := s[0].Close
	for _, p := range s {
		out = append(out, p.Close/base*100)
	}
	return out
}
