// Package dashboard serves the JSON API consumed by the dashboard front end:
// price series, quotes, news sentiment, the backtest simulator, and the
// market-schedule panel.
package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"marketpulse/internal/backtest"
	"marketpulse/internal/calendar"
	"marketpulse/internal/domain"
	"marketpulse/internal/marketdata"
	"marketpulse/internal/sentiment"
)

// NewsSource fetches articles for the sentiment endpoints.
// *sentiment.NewsClient is the production implementation.
type NewsSource interface {
	TopHeadlines(ctx context.Context) ([]sentiment.Article, error)
	Everything(ctx context.Context, query string, from, to time.Time) ([]sentiment.Article, error)
}

var _ NewsSource = (*sentiment.NewsClient)(nil)

// Server serves the dashboard HTTP API.
type Server struct {
	provider  marketdata.Provider
	news      NewsSource
	analyzer  *sentiment.Analyzer
	histCache *sentiment.HistoryCache
	cal       *calendar.Calendar
	cities    []calendar.CityZone
	defaults  backtest.Params
	log       *slog.Logger
	now       func() time.Time
}

// NewServer creates a dashboard server. news may be nil, in which case the
// sentiment endpoints report neutral with no articles.
func NewServer(
	provider marketdata.Provider,
	news NewsSource,
	cal *calendar.Calendar,
	cities []calendar.CityZone,
	defaults backtest.Params,
	log *slog.Logger,
) *Server {
	return &Server{
		provider:  provider,
		news:      news,
		analyzer:  sentiment.NewAnalyzer(),
		histCache: sentiment.NewHistoryCache(),
		cal:       cal,
		cities:    cities,
		defaults:  defaults,
		log:       log,
		now:       time.Now,
	}
}

// SetClock replaces the time source for tests.
func (s *Server) SetClock(now func() time.Time) { s.now = now }

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/series/{symbol}", s.handleSeries)
	mux.HandleFunc("GET /api/quote/{symbol}", s.handleQuote)
	mux.HandleFunc("GET /api/compare", s.handleCompare)
	mux.HandleFunc("GET /api/sentiment", s.handleSentiment)
	mux.HandleFunc("GET /api/sentiment/{asset}", s.handleAssetSentiment)
	mux.HandleFunc("GET /api/backtest", s.handleBacktest)
	mux.HandleFunc("GET /api/clock", s.handleClock)
	mux.HandleFunc("GET /api/market", s.handleMarket)
	mux.HandleFunc("GET /api/holidays/{year}", s.handleHolidays)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// intervalParams extracts interval and outputsize with dashboard defaults.
func intervalParams(r *http.Request) (interval string, outputSize int) {
	interval = r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1day"
	}
	outputSize = 90
	if v := r.URL.Query().Get("outputsize"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 5000 {
			outputSize = n
		}
	}
	return interval, outputSize
}

// fetchSeries pulls bars for a symbol, degrading to empty data on upstream
// failure so one dead collaborator does not blank the whole page.
func (s *Server) fetchSeries(ctx context.Context, symbol, interval string, outputSize int) []domain.Bar {
	bars, err := s.provider.TimeSeries(ctx, symbol, interval, outputSize)
	if err != nil {
		s.log.Warn("series fetch failed", "symbol", symbol, "err", err)
		return nil
	}
	return bars
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	interval, outputSize := intervalParams(r)

	bars := s.fetchSeries(r.Context(), symbol, interval, outputSize)
	points := make([]SeriesPoint, 0, len(bars))
	for _, b := range bars {
		points = append(points, SeriesPoint{
			Date:  b.Timestamp.Format("2006-01-02"),
			Close: b.Close,
		})
	}

	writeJSON(w, SeriesResponse{Symbol: symbol, Points: points})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))

	bars := s.fetchSeries(r.Context(), symbol, "1day", 1)
	price, ok := marketdata.LatestClose(bars)
	if !ok {
		writeError(w, http.StatusNotFound, "no data for "+symbol)
		return
	}

	writeJSON(w, QuoteResponse{
		Symbol: symbol,
		Price:  price,
		AsOf:   bars[len(bars)-1].Timestamp.Format("2006-01-02"),
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	symbolA := strings.ToUpper(r.URL.Query().Get("a"))
	symbolB := strings.ToUpper(r.URL.Query().Get("b"))
	if symbolA == "" {
		symbolA = s.defaults.SymbolA
	}
	if symbolB == "" {
		symbolB = s.defaults.SymbolB
	}
	interval, outputSize := intervalParams(r)

	seriesA := marketdata.ToPriceSeries(s.fetchSeries(r.Context(), symbolA, interval, outputSize))
	seriesB := marketdata.ToPriceSeries(s.fetchSeries(r.Context(), symbolB, interval, outputSize))

	shared := backtest.AlignedTimestamps(seriesA, seriesB)
	alignedA := filterToTimestamps(seriesA, shared)
	alignedB := filterToTimestamps(seriesB, shared)

	resp := CompareResponse{
		SymbolA: symbolA,
		SymbolB: symbolB,
		Dates:   make([]string, 0, len(shared)),
		A:       marketdata.Normalize(alignedA),
		B:       marketdata.Normalize(alignedB),
	}
	for _, ts := range shared {
		resp.Dates = append(resp.Dates, ts.Format("2006-01-02"))
	}

	writeJSON(w, resp)
}

func filterToTimestamps(s domain.PriceSeries, keep []time.Time) domain.PriceSeries {
	set := make(map[time.Time]struct{}, len(keep))
	for _, ts := range keep {
		set[ts] = struct{}{}
	}
	out := make(domain.PriceSeries, 0, len(keep))
	for _, p := range s {
		if _, ok := set[p.Timestamp]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	resp := SentimentResponse{Label: sentiment.Neutral, Articles: []ScoredArticle{}}
	if s.news == nil {
		writeJSON(w, resp)
		return
	}

	articles, err := s.news.TopHeadlines(r.Context())
	if err != nil {
		s.log.Warn("headlines fetch failed", "err", err)
		writeJSON(w, resp)
		return
	}

	resp.Score, resp.Articles = s.scoreArticles(articles)
	resp.Label = sentiment.Classify(resp.Score, s.defaults.BullishThreshold, s.defaults.BearishThreshold)
	writeJSON(w, resp)
}

func (s *Server) handleAssetSentiment(w http.ResponseWriter, r *http.Request) {
	asset := strings.ToUpper(r.PathValue("asset"))
	today := s.now()

	resp := SentimentResponse{Asset: asset, Label: sentiment.Neutral, Articles: []ScoredArticle{}}

	if score, ok := s.histCache.Get(asset, today); ok {
		resp.Score = score
		resp.Label = sentiment.Classify(score, s.defaults.BullishThreshold, s.defaults.BearishThreshold)
		resp.Cached = true
		writeJSON(w, resp)
		return
	}

	if s.news == nil {
		writeJSON(w, resp)
		return
	}

	articles, err := s.news.Everything(r.Context(), asset, today.AddDate(0, 0, -7), today)
	if err != nil {
		s.log.Warn("asset news fetch failed", "asset", asset, "err", err)
		writeJSON(w, resp)
		return
	}

	resp.Score, resp.Articles = s.scoreArticles(articles)
	resp.Label = sentiment.Classify(resp.Score, s.defaults.BullishThreshold, s.defaults.BearishThreshold)
	s.histCache.Put(asset, today, resp.Score)
	writeJSON(w, resp)
}

func (s *Server) scoreArticles(articles []sentiment.Article) (float64, []ScoredArticle) {
	scored := make([]ScoredArticle, 0, len(articles))
	headlines := make([]string, 0, len(articles))
	for _, a := range articles {
		headlines = append(headlines, a.Headline)
		scored = append(scored, ScoredArticle{
			Time:     a.Time.Format(time.RFC3339),
			Source:   a.Source,
			Headline: a.Headline,
			URL:      a.URL,
			Score:    s.analyzer.Score(a.Headline),
		})
	}
	return s.analyzer.ScoreAll(headlines), scored
}

// backtestParams builds the run parameters from the configured defaults plus
// any query-string overrides.
func (s *Server) backtestParams(r *http.Request) backtest.Params {
	p := s.defaults
	q := r.URL.Query()

	if v := strings.ToUpper(q.Get("a")); v != "" {
		p.SymbolA = v
	}
	if v := strings.ToUpper(q.Get("b")); v != "" {
		p.SymbolB = v
	}
	override := func(name string, dst *float64) {
		if v := q.Get(name); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	override("initialCapital", &p.InitialCapital)
	override("takeProfit", &p.TakeProfit)
	override("stopLoss", &p.StopLoss)
	override("bullish", &p.BullishThreshold)
	override("bearish", &p.BearishThreshold)
	override("reserve", &p.Reserve)
	return p
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	p := s.backtestParams(r)
	interval, outputSize := intervalParams(r)

	seriesA := marketdata.ToPriceSeries(s.fetchSeries(r.Context(), p.SymbolA, interval, outputSize))
	seriesB := marketdata.ToPriceSeries(s.fetchSeries(r.Context(), p.SymbolB, interval, outputSize))

	sig := backtest.NewCycleSignal(backtest.AlignedTimestamps(seriesA, seriesB), p.SymbolA, p.SymbolB)
	res := backtest.Run(seriesA, seriesB, sig, p)

	resp := BacktestResponse{
		SymbolA:      p.SymbolA,
		SymbolB:      p.SymbolB,
		Timestamps:   make([]string, 0, len(res.Timestamps)),
		Values:       res.Values,
		Transactions: res.Transactions,
		Metrics:      backtest.ComputeMetrics(res.Values, res.Transactions),
	}
	for _, ts := range res.Timestamps {
		resp.Timestamps = append(resp.Timestamps, ts.Format("2006-01-02"))
	}
	if resp.Values == nil {
		resp.Values = []float64{}
	}
	if resp.Transactions == nil {
		resp.Transactions = []domain.Transaction{}
	}

	writeJSON(w, resp)
}

func (s *Server) handleClock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, ClockResponse{Cities: calendar.WorldClock(s.cities, s.now())})
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	now := s.now()

	open, err := s.cal.IsMarketOpen(r.Context(), now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "market schedule unavailable")
		return
	}
	nextOpen, err := s.cal.NextOpen(r.Context(), now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "market schedule unavailable")
		return
	}
	nextClose, err := s.cal.NextClose(r.Context(), now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "market schedule unavailable")
		return
	}

	writeJSON(w, MarketResponse{
		Open:      open,
		NextOpen:  nextOpen.Format(time.RFC3339),
		NextClose: nextClose.Format(time.RFC3339),
	})
}

func (s *Server) handleHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil || year < 1900 || year > 2200 {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}

	holidays, err := s.cal.Holidays(r.Context(), year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "holidays unavailable")
		return
	}
	if holidays == nil {
		holidays = []calendar.Holiday{}
	}

	writeJSON(w, HolidaysResponse{Year: year, Holidays: holidays})
}
