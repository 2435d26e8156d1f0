package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"marketpulse/internal/backtest"
	"marketpulse/internal/config"
	"marketpulse/internal/dashboard"
	"marketpulse/internal/marketdata"
	"marketpulse/internal/util"
)

func main() {
	symbolA := flag.String("a", "", "first symbol (default from config)")
	symbolB := flag.String("b", "", "second symbol (default from config)")
	interval := flag.String("interval", "1day", "bar interval")
	outputSize := flag.Int("outputsize", 90, "number of bars to fetch")
	capital := flag.Float64("capital", 0, "initial capital override")
	takeProfit := flag.Float64("take-profit", 0, "take-profit ratio override")
	stopLoss := flag.Float64("stop-loss", 0, "stop-loss ratio override")
	flag.Parse()

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

	p := backtest.Params{
		InitialCapital:   cfg.Backtest.InitialCapital,
		TakeProfit:       cfg.Backtest.TakeProfit,
		StopLoss:         cfg.Backtest.StopLoss,
		BullishThreshold: cfg.Backtest.BullishThreshold,
		BearishThreshold: cfg.Backtest.BearishThreshold,
		Reserve:          cfg.Backtest.Reserve,
		SymbolA:          cfg.Backtest.SymbolA,
		SymbolB:          cfg.Backtest.SymbolB,
	}
	if *symbolA != "" {
		p.SymbolA = *symbolA
	}
	if *symbolB != "" {
		p.SymbolB = *symbolB
	}
	if *capital > 0 {
		p.InitialCapital = *capital
	}
	if *takeProfit > 0 {
		p.TakeProfit = *takeProfit
	}
	if *stopLoss > 0 {
		p.StopLoss = *stopLoss
	}

	var provider marketdata.Provider
	switch cfg.Data.Provider {
	case "twelvedata":
		provider = marketdata.NewTwelveDataClient(cfg.Data.TwelveData.APIKey, cfg.Data.TwelveData.BaseURL)
	case "alpaca":
		provider = marketdata.NewAlpacaProvider(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL)
	default:
		log.Fatalf("unknown data provider %q", cfg.Data.Provider)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	barsA, err := provider.TimeSeries(ctx, p.SymbolA, *interval, *outputSize)
	if err != nil {
		log.Fatalf("fetching %s: %v", p.SymbolA, err)
	}
	barsB, err := provider.TimeSeries(ctx, p.SymbolB, *interval, *outputSize)
	if err != nil {
		log.Fatalf("fetching %s: %v", p.SymbolB, err)
	}

	seriesA := marketdata.ToPriceSeries(barsA)
	seriesB := marketdata.ToPriceSeries(barsB)
	if err := seriesA.Validate(); err != nil {
		log.Fatalf("%s series: %v", p.SymbolA, err)
	}
	if err := seriesB.Validate(); err != nil {
		log.Fatalf("%s series: %v", p.SymbolB, err)
	}

	sig := backtest.NewCycleSignal(backtest.AlignedTimestamps(seriesA, seriesB), p.SymbolA, p.SymbolB)
	res := backtest.Run(seriesA, seriesB, sig, p)

	if len(res.Values) == 0 {
		fmt.Println("no overlapping data for the requested symbols")
		return
	}

	m := backtest.ComputeMetrics(res.Values, res.Transactions)

	fmt.Printf("%s / %s: %d sessions, %s to %s\n",
		p.SymbolA, p.SymbolB,
		len(res.Timestamps),
		res.Timestamps[0].Format("2006-01-02"),
		res.Timestamps[len(res.Timestamps)-1].Format("2006-01-02"),
	)
	fmt.Printf("start %s  end %s  return %s\n",
		dashboard.FormatMoney(res.Values[0]),
		dashboard.FormatMoney(res.Values[len(res.Values)-1]),
		dashboard.FormatPercent(m.TotalReturn),
	)
	fmt.Println()

	if len(res.Transactions) == 0 {
		fmt.Println("no transactions")
	} else {
		fmt.Printf("%-12s %-6s %-12s %10s %12s %14s %10s\n",
			"DATE", "SYMBOL", "ACTION", "SHARES", "PRICE", "VALUE", "RETURN")
		for _, tx := range res.Transactions {
			ret := ""
			if tx.ReturnPct != nil {
				ret = dashboard.FormatPercent(*tx.ReturnPct / 100)
			}
			fmt.Printf("%-12s %-6s %-12s %10s %12s %14s %10s\n",
				tx.Date.Format("2006-01-02"),
				tx.Symbol,
				tx.Action,
				dashboard.FormatShares(tx.Shares),
				dashboard.FormatMoney(tx.Price),
				dashboard.FormatMoney(tx.Value),
				ret,
			)
		}
	}

	fmt.Println()
	fmt.Printf("max drawdown      %s\n", dashboard.FormatPercent(m.MaxDrawdown))
	fmt.Printf("annualized stdev  %s\n", dashboard.FormatPercent(m.AnnualizedStdev))
	fmt.Printf("sharpe ratio      %.2f\n", m.SharpeRatio)
	fmt.Printf("trades            %d (win rate %.0f%%)\n", m.TotalTrades, m.WinRate*100)
}
