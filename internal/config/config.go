package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the marketpulse dashboard.
type Config struct {
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
	Data     Data     `yaml:"data"`
	Alpaca   Alpaca   `yaml:"alpaca"`
	News     News     `yaml:"news"`
	Finnhub  Finnhub  `yaml:"finnhub"`
	Cache    Cache    `yaml:"cache"`
	Clock    Clock    `yaml:"clock"`
	Backtest Backtest `yaml:"backtest"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Data selects the market-data provider and its credentials.
type Data struct {
	Provider   string     `yaml:"provider"` // "twelvedata" or "alpaca"
	TwelveData TwelveData `yaml:"twelvedata"`
}

// TwelveData holds Twelve Data API access parameters.
type TwelveData struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// Alpaca holds credentials for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
}

// News holds NewsAPI access parameters for the sentiment feed.
type News struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	PageSize int    `yaml:"page_size"`
}

// Finnhub holds Finnhub access parameters for the market-holiday feed.
type Finnhub struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// Cache holds paths and lifetimes for local caches.
type Cache struct {
	HolidayDB   string `yaml:"holiday_db"`
	PriceTTLSec int    `yaml:"price_ttl_sec"`
}

// Clock configures the world-clock panel and the exchange trading window.
type Clock struct {
	Cities     []City `yaml:"cities"`
	MarketTZ   string `yaml:"market_tz"`
	OpenHour   int    `yaml:"open_hour"`
	OpenMin    int    `yaml:"open_min"`
	CloseHour  int    `yaml:"close_hour"`
	CloseMin   int    `yaml:"close_min"`
}

// City is one world-clock entry: a display label and an IANA zone name.
type City struct {
	Label string `yaml:"label"`
	Zone  string `yaml:"zone"`
}

// Backtest holds the default strategy parameters. Request query parameters
// override these per run.
type Backtest struct {
	SymbolA          string  `yaml:"symbol_a"`
	SymbolB          string  `yaml:"symbol_b"`
	InitialCapital   float64 `yaml:"initial_capital"`
	TakeProfit       float64 `yaml:"take_profit"`
	StopLoss         float64 `yaml:"stop_loss"`
	BullishThreshold float64 `yaml:"bullish_threshold"`
	BearishThreshold float64 `yaml:"bearish_threshold"`
	Reserve          float64 `yaml:"reserve"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, fills in defaults, and then applies environment variable
// overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyDefaults fills in zero-valued fields so a minimal config file still
// produces a runnable dashboard.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Data.Provider == "" {
		cfg.Data.Provider = "twelvedata"
	}
	if cfg.Data.TwelveData.BaseURL == "" {
		cfg.Data.TwelveData.BaseURL = "https://api.twelvedata.com"
	}

	if cfg.News.BaseURL == "" {
		cfg.News.BaseURL = "https://newsapi.org/v2"
	}
	if cfg.News.PageSize == 0 {
		cfg.News.PageSize = 20
	}

	if cfg.Finnhub.BaseURL == "" {
		cfg.Finnhub.BaseURL = "https://finnhub.io/api/v1"
	}

	if cfg.Cache.HolidayDB == "" {
		cfg.Cache.HolidayDB = "marketpulse-holidays.db"
	}
	if cfg.Cache.PriceTTLSec == 0 {
		cfg.Cache.PriceTTLSec = 300
	}

	if cfg.Clock.MarketTZ == "" {
		cfg.Clock.MarketTZ = "America/New_York"
	}
	if cfg.Clock.OpenHour == 0 && cfg.Clock.OpenMin == 0 {
		cfg.Clock.OpenHour, cfg.Clock.OpenMin = 9, 30
	}
	if cfg.Clock.CloseHour == 0 && cfg.Clock.CloseMin == 0 {
		cfg.Clock.CloseHour, cfg.Clock.CloseMin = 16, 0
	}
	if len(cfg.Clock.Cities) == 0 {
		cfg.Clock.Cities = []City{
			{Label: "New York", Zone: "America/New_York"},
			{Label: "London", Zone: "Europe/London"},
			{Label: "Tokyo", Zone: "Asia/Tokyo"},
		}
	}

	if cfg.Backtest.SymbolA == "" {
		cfg.Backtest.SymbolA = "SPY"
	}
	if cfg.Backtest.SymbolB == "" {
		cfg.Backtest.SymbolB = "GLD"
	}
	if cfg.Backtest.InitialCapital == 0 {
		cfg.Backtest.InitialCapital = 10000
	}
	if cfg.Backtest.TakeProfit == 0 {
		cfg.Backtest.TakeProfit = 0.1175
	}
	if cfg.Backtest.StopLoss == 0 {
		cfg.Backtest.StopLoss = 0.0225
	}
	if cfg.Backtest.BullishThreshold == 0 {
		cfg.Backtest.BullishThreshold = 0.05
	}
	if cfg.Backtest.BearishThreshold == 0 {
		cfg.Backtest.BearishThreshold = -0.3
	}
	if cfg.Backtest.Reserve == 0 {
		cfg.Backtest.Reserve = 100
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TWELVE_DATA_API_KEY"); v != "" {
		cfg.Data.TwelveData.APIKey = v
	}

	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		cfg.News.APIKey = v
	}

	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		cfg.Finnhub.APIKey = v
	}

	if v := os.Getenv("HOLIDAY_DB"); v != "" {
		cfg.Cache.HolidayDB = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (canonical names used by the SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
