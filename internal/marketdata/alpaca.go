package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	alpacadata "github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"marketpulse/internal/domain"
)

var _ Provider = (*AlpacaProvider)(nil)

// AlpacaProvider fetches bars from the Alpaca market-data API.
type AlpacaProvider struct {
	client *alpacadata.Client
}

// NewAlpacaProvider creates an AlpacaProvider with the given credentials.
// dataURL overrides the default API endpoint when non-empty.
func NewAlpacaProvider(apiKey, apiSecret, dataURL string) *AlpacaProvider {
	opts := alpacadata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &AlpacaProvider{client: alpacadata.NewClient(opts)}
}

// TimeSeries fetches up to outputSize bars ending now. The interval string
// follows the Twelve Data convention and is mapped onto Alpaca timeframes.
func (p *AlpacaProvider) TimeSeries(ctx context.Context, symbol, interval string, outputSize int) ([]domain.Bar, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	frame, span, err := timeframeFor(interval)
	if err != nil {
		return nil, err
	}

	end := time.Now().UTC()
	start := end.Add(-span * time.Duration(outputSize))

	alpacaBars, err := p.client.GetBars(symbol, alpacadata.GetBarsRequest{
		TimeFrame:  frame,
		Start:      start,
		End:        end,
		TotalLimit: outputSize,
		Feed:       "iex",
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars: %w", err)
	}

	bars := make([]domain.Bar, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		bars = append(bars, domain.Bar{
			Symbol:    strings.ToUpper(symbol),
			Timestamp: ab.Timestamp,
			Open:      ab.Open,
			High:      ab.High,
			Low:       ab.Low,
			Close:     ab.Close,
			Volume:    int64(ab.Volume),
		})
	}
	return bars, nil
}

// timeframeFor maps a Twelve Data interval string to an Alpaca timeframe and
// the wall-clock span of one bar. The span is padded for daily bars so that
// weekends and holidays do not shrink the window below outputSize bars.
func timeframeFor(interval string) (alpacadata.TimeFrame, time.Duration, error) {
	switch interval {
	case "1day", "":
		return alpacadata.OneDay, 36 * time.Hour, nil
	case "1h":
		return alpacadata.OneHour, time.Hour, nil
	case "1min":
		return alpacadata.OneMin, time.Minute, nil
	}
	return alpacadata.TimeFrame{}, 0, fmt.Errorf("unsupported interval %q", interval)
}
