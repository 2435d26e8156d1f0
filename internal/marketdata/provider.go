// Package marketdata fetches historical price bars for the dashboard. It
// offers two interchangeable providers (Twelve Data and Alpaca) behind a
// common interface, plus an in-memory TTL cache that wraps either one.
package marketdata

import (
	"context"

	"marketpulse/internal/domain"
)

// Provider fetches recent bars for a symbol. interval is a Twelve Data style
// interval string ("1day", "1h", ...); outputSize caps the number of bars.
// Implementations return bars sorted by ascending timestamp; an empty slice
// with a nil error means the upstream had no data for the symbol.
type Provider interface {
	TimeSeries(ctx context.Context, symbol, interval string, outputSize int) ([]domain.Bar, error)
}
