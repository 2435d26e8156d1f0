package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketpulse/internal/backtest"
	"marketpulse/internal/calendar"
	"marketpulse/internal/config"
	"marketpulse/internal/dashboard"
	"marketpulse/internal/marketdata"
	"marketpulse/internal/sentiment"
	"marketpulse/internal/util"
)

func main() {
	cfgPath := "config/marketpulse.yaml"
	if p := os.Getenv("MARKETPULSE_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	provider, err := buildProvider(cfg)
	if err != nil {
		log.Fatalf("failed to build provider: %v", err)
	}
	cached := marketdata.NewCachedProvider(provider, time.Duration(cfg.Cache.PriceTTLSec)*time.Second)

	var news dashboard.NewsSource
	if cfg.News.APIKey != "" {
		news = sentiment.NewNewsClient(cfg.News.APIKey, cfg.News.BaseURL, cfg.News.PageSize)
	} else {
		logger.Warn("news api key not set, sentiment endpoints will be empty")
	}

	holidayCache, err := calendar.NewHolidayCache(cfg.Cache.HolidayDB)
	if err != nil {
		log.Fatalf("failed to open holiday cache: %v", err)
	}
	defer holidayCache.Close()

	var feed calendar.HolidaySource
	if cfg.Finnhub.APIKey != "" {
		feed = calendar.NewFinnhubClient(cfg.Finnhub.APIKey, cfg.Finnhub.BaseURL)
	}

	hours, err := calendar.NewMarketHours(
		cfg.Clock.MarketTZ,
		cfg.Clock.OpenHour, cfg.Clock.OpenMin,
		cfg.Clock.CloseHour, cfg.Clock.CloseMin,
	)
	if err != nil {
		log.Fatalf("failed to build market hours: %v", err)
	}
	cal := calendar.New(holidayCache, feed, hours)

	cities := make([]calendar.CityZone, 0, len(cfg.Clock.Cities))
	for _, c := range cfg.Clock.Cities {
		cities = append(cities, calendar.CityZone{Label: c.Label, Zone: c.Zone})
	}

	srv := dashboard.NewServer(cached, news, cal, cities, paramsFrom(cfg), logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("dashboard listening", "addr", addr, "provider", cfg.Data.Provider)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}

func buildProvider(cfg *config.Config) (marketdata.Provider, error) {
	switch cfg.Data.Provider {
	case "twelvedata":
		return marketdata.NewTwelveDataClient(cfg.Data.TwelveData.APIKey, cfg.Data.TwelveData.BaseURL), nil
	case "alpaca":
		return marketdata.NewAlpacaProvider(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL), nil
	}
	return nil, fmt.Errorf("unknown data provider %q", cfg.Data.Provider)
}

func paramsFrom(cfg *config.Config) backtest.Params {
	return backtest.Params{
		InitialCapital:   cfg.Backtest.InitialCapital,
		TakeProfit:       cfg.Backtest.TakeProfit,
		StopLoss:         cfg.Backtest.StopLoss,
		BullishThreshold: cfg.Backtest.BullishThreshold,
		BearishThreshold: cfg.Backtest.BearishThreshold,
		Reserve:          cfg.Backtest.Reserve,
		SymbolA:          cfg.Backtest.SymbolA,
		SymbolB:          cfg.Backtest.SymbolB,
	}
}
