package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTwelveDataTimeSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/time_series" {
			t.Errorf("path = %q, want /time_series", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("symbol") != "SPY" {
			t.Errorf("symbol = %q, want SPY", q.Get("symbol"))
		}
		if q.Get("interval") != "1day" {
			t.Errorf("interval = %q, want 1day", q.Get("interval"))
		}
		if q.Get("outputsize") != "3" {
			t.Errorf("outputsize = %q, want 3", q.Get("outputsize"))
		}
		if q.Get("apikey") != "test-key" {
			t.Errorf("apikey = %q, want test-key", q.Get("apikey"))
		}

		// Newest first, as the upstream sends it.
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "ok",
			"values": [
				{"datetime": "2025-04-23", "open": "548.10", "high": "552.00", "low": "546.50", "close": "551.25", "volume": "61234500"},
				{"datetime": "2025-04-22", "open": "540.00", "high": "549.30", "low": "539.80", "close": "548.40", "volume": "70100200"},
				{"datetime": "2025-04-21", "open": "545.20", "high": "546.00", "low": "536.70", "close": "537.90", "volume": "65443100"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewTwelveDataClient("test-key", srv.URL)
	bars, err := c.TimeSeries(context.Background(), "SPY", "1day", 3)
	if err != nil {
		t.Fatalf("TimeSeries returned error: %v", err)
	}

	if len(bars) != 3 {
		t.Fatalf("got %d bars, want 3", len(bars))
	}

	// Sorted ascending after the fetch.
	want0 := time.Date(2025, 4, 21, 0, 0, 0, 0, time.UTC)
	if !bars[0].Timestamp.Equal(want0) {
		t.Errorf("bars[0].Timestamp = %s, want %s", bars[0].Timestamp, want0)
	}
	if bars[0].Close != 537.90 {
		t.Errorf("bars[0].Close = %v, want 537.90", bars[0].Close)
	}
	if bars[2].Close != 551.25 {
		t.Errorf("bars[2].Close = %v, want 551.25", bars[2].Close)
	}
	if bars[1].Volume != 70100200 {
		t.Errorf("bars[1].Volume = %d, want 70100200", bars[1].Volume)
	}
	if bars[0].Symbol != "SPY" {
		t.Errorf("bars[0].Symbol = %q, want SPY", bars[0].Symbol)
	}
}

func TestTwelveDataUnknownSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "error", "code": 400, "message": "symbol not found"}`))
	}))
	defer srv.Close()

	c := NewTwelveDataClient("test-key", srv.URL)
	bars, err := c.TimeSeries(context.Background(), "NOPE", "1day", 10)
	if err != nil {
		t.Fatalf("unknown symbol should not be an error, got %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("got %d bars, want 0", len(bars))
	}
}

func TestTwelveDataUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "error", "code": 429, "message": "rate limit exceeded"}`))
	}))
	defer srv.Close()

	c := NewTwelveDataClient("test-key", srv.URL)
	if _, err := c.TimeSeries(context.Background(), "SPY", "1day", 10); err == nil {
		t.Error("rate-limit response should surface as an error")
	}
}

func TestTwelveDataIntradayDatetime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "ok",
			"values": [
				{"datetime": "2025-04-23 15:30:00", "open": "550", "high": "551", "low": "549", "close": "550.5", "volume": "1000"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewTwelveDataClient("test-key", srv.URL)
	bars, err := c.TimeSeries(context.Background(), "SPY", "1h", 1)
	if err != nil {
		t.Fatalf("TimeSeries returned error: %v", err)
	}
	want := time.Date(2025, 4, 23, 15, 30, 0, 0, time.UTC)
	if len(bars) != 1 || !bars[0].Timestamp.Equal(want) {
		t.Errorf("bars = %+v, want one bar at %s", bars, want)
	}
}
