package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"

	configtypes "github.com/daszybak/marketscan/internal/config"
	"github.com/daszybak/marketscan/internal/polymarket"
	"github.com/daszybak/marketscan/internal/scanner"
	"github.com/daszybak/marketscan/pkg/httpclient"
)

const envPrefix = "MARKETSCAN_"

type config struct {
	LogLevel   string `yaml:"log_level"` // debug, info, warn, error
	Polymarket struct {
		GammaURL       string               `yaml:"gamma_url"`
		ClobURL        string               `yaml:"clob_url"`
		DataURL        string               `yaml:"data_url"`
		RequestTimeout configtypes.Duration `yaml:"request_timeout"`
	} `yaml:"polymarket"`
	Scan struct {
		DiscoveryLimit  int                  `yaml:"discovery_limit"`
		DiscoveryOrder  string               `yaml:"discovery_order"`
		DisplayMarkets  int                  `yaml:"display_markets"`
		SimplifiedPages int                  `yaml:"simplified_pages"`
		AggregatePages  int                  `yaml:"aggregate_pages"`
		PriceBatchSize  int                  `yaml:"price_batch_size"`
		BookDepth       int                  `yaml:"book_depth"`
		TradesLimit     int                  `yaml:"trades_limit"`
		TopN            int                  `yaml:"top_n"`
		HistoryMarkets  int                  `yaml:"history_markets"`
		HistoryInterval string               `yaml:"history_interval"`
		HistoryDelay    configtypes.Duration `yaml:"history_delay"`
		DumpPath        string               `yaml:"dump_path"`
	} `yaml:"scan"`
}

func defaultConfig() *config {
	cfg := &config{LogLevel: "info"}
	cfg.Polymarket.GammaURL = polymarket.DefaultGammaURL
	cfg.Polymarket.ClobURL = polymarket.DefaultClobURL
	cfg.Polymarket.DataURL = polymarket.DefaultDataURL
	cfg.Polymarket.RequestTimeout = configtypes.Duration(httpclient.DefaultTimeout)

	d := scanner.DefaultConfig()
	cfg.Scan.DiscoveryLimit = d.DiscoveryLimit
	cfg.Scan.DiscoveryOrder = d.DiscoveryOrder
	cfg.Scan.DisplayMarkets = d.DisplayMarkets
	cfg.Scan.SimplifiedPages = d.SimplifiedPages
	cfg.Scan.AggregatePages = d.AggregatePages
	cfg.Scan.PriceBatchSize = d.PriceBatchSize
	cfg.Scan.BookDepth = d.BookDepth
	cfg.Scan.TradesLimit = d.TradesLimit
	cfg.Scan.TopN = d.TopN
	cfg.Scan.HistoryMarkets = d.HistoryMarkets
	cfg.Scan.HistoryInterval = d.HistoryInterval
	cfg.Scan.HistoryDelay = configtypes.Duration(d.HistoryDelay)
	cfg.Scan.DumpPath = d.DumpPath
	return cfg
}

// readConfig layers the YAML file over the defaults, then .env and
// MARKETSCAN_* variables over that. A missing file leaves the defaults.
func readConfig(configPath string) (*config, error) {
	cfg := defaultConfig()

	rawConfig, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("couldn't read file %s: %w", configPath, err)
	default:
		if err = yaml.Unmarshal(rawConfig, cfg); err != nil {
			return nil, fmt.Errorf("couldn't parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("couldn't load .env: %w", err)
	}
	if err := applyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("couldn't apply environment: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("couldn't validate config: %w", err)
	}

	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func applyEnvOverrides(cfg *config, lookup lookupFunc) error {
	env := envReader{lookup: lookup}

	env.str(&cfg.LogLevel, "LOG_LEVEL")
	env.str(&cfg.Polymarket.GammaURL, "GAMMA_URL")
	env.str(&cfg.Polymarket.ClobURL, "CLOB_URL")
	env.str(&cfg.Polymarket.DataURL, "DATA_URL")
	env.duration(&cfg.Polymarket.RequestTimeout, "REQUEST_TIMEOUT")

	env.integer(&cfg.Scan.DiscoveryLimit, "DISCOVERY_LIMIT")
	env.str(&cfg.Scan.DiscoveryOrder, "DISCOVERY_ORDER")
	env.integer(&cfg.Scan.DisplayMarkets, "DISPLAY_MARKETS")
	env.integer(&cfg.Scan.SimplifiedPages, "SIMPLIFIED_PAGES")
	env.integer(&cfg.Scan.AggregatePages, "AGGREGATE_PAGES")
	env.integer(&cfg.Scan.PriceBatchSize, "PRICE_BATCH_SIZE")
	env.integer(&cfg.Scan.BookDepth, "BOOK_DEPTH")
	env.integer(&cfg.Scan.TradesLimit, "TRADES_LIMIT")
	env.integer(&cfg.Scan.TopN, "TOP_N")
	env.integer(&cfg.Scan.HistoryMarkets, "HISTORY_MARKETS")
	env.str(&cfg.Scan.HistoryInterval, "HISTORY_INTERVAL")
	env.duration(&cfg.Scan.HistoryDelay, "HISTORY_DELAY")
	env.str(&cfg.Scan.DumpPath, "DUMP_PATH")

	return env.err
}

// envReader applies MARKETSCAN_* variables that are set and non-empty,
// keeping the first parse error.
type envReader struct {
	lookup lookupFunc
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(envPrefix + key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) str(dst *string, key string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) integer(dst *int, key string) {
	v, ok := e.get(key)
	if !ok || e.err != nil {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.err = fmt.Errorf("couldn't parse %s%s: %w", envPrefix, key, err)
		return
	}
	*dst = n
}

func (e *envReader) duration(dst *configtypes.Duration, key string) {
	v, ok := e.get(key)
	if !ok || e.err != nil {
		return
	}
	d, err := configtypes.ParseDuration(v)
	if err != nil {
		e.err = fmt.Errorf("couldn't parse %s%s: %w", envPrefix, key, err)
		return
	}
	*dst = d
}

func validateConfig(cfg *config) error {
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return err
	}

	// Polymarket
	for _, field := range []struct {
		name string
		raw  string
	}{
		{"polymarket.gamma_url", cfg.Polymarket.GammaURL},
		{"polymarket.clob_url", cfg.Polymarket.ClobURL},
		{"polymarket.data_url", cfg.Polymarket.DataURL},
	} {
		name, raw := field.name, field.raw
		if raw == "" {
			return fmt.Errorf("%s is required", name)
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	if cfg.Polymarket.RequestTimeout <= 0 {
		return fmt.Errorf("polymarket.request_timeout must be greater than 0")
	}

	// Scan
	if cfg.Scan.DiscoveryLimit <= 0 {
		return fmt.Errorf("scan.discovery_limit must be greater than 0")
	}
	if cfg.Scan.SimplifiedPages <= 0 {
		return fmt.Errorf("scan.simplified_pages must be greater than 0")
	}
	if cfg.Scan.AggregatePages <= 0 || cfg.Scan.AggregatePages > cfg.Scan.SimplifiedPages {
		return fmt.Errorf("scan.aggregate_pages must be between 1 and scan.simplified_pages")
	}
	if cfg.Scan.PriceBatchSize <= 0 {
		return fmt.Errorf("scan.price_batch_size must be greater than 0")
	}
	if cfg.Scan.DisplayMarkets < 0 || cfg.Scan.BookDepth < 0 || cfg.Scan.TopN < 0 || cfg.Scan.HistoryMarkets < 0 {
		return fmt.Errorf("scan.display_markets, scan.book_depth, scan.top_n and scan.history_markets must not be negative")
	}
	if cfg.Scan.TradesLimit <= 0 {
		return fmt.Errorf("scan.trades_limit must be greater than 0")
	}

	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log_level must be one of debug, info, warn, error: %w", err)
	}
	return level, nil
}

func (cfg *config) polymarketConfig() polymarket.Config {
	return polymarket.Config{
		ClobURL:        cfg.Polymarket.ClobURL,
		GammaURL:       cfg.Polymarket.GammaURL,
		DataURL:        cfg.Polymarket.DataURL,
		RequestTimeout: cfg.Polymarket.RequestTimeout.Duration(),
	}
}

func (cfg *config) scannerConfig() scanner.Config {
	return scanner.Config{
		DiscoveryLimit:  cfg.Scan.DiscoveryLimit,
		DiscoveryOrder:  cfg.Scan.DiscoveryOrder,
		DisplayMarkets:  cfg.Scan.DisplayMarkets,
		SimplifiedPages: cfg.Scan.SimplifiedPages,
		AggregatePages:  cfg.Scan.AggregatePages,
		PriceBatchSize:  cfg.Scan.PriceBatchSize,
		BookDepth:       cfg.Scan.BookDepth,
		TradesLimit:     cfg.Scan.TradesLimit,
		TopN:            cfg.Scan.TopN,
		HistoryMarkets:  cfg.Scan.HistoryMarkets,
		HistoryInterval: cfg.Scan.HistoryInterval,
		HistoryDelay:    cfg.Scan.HistoryDelay.Duration(),
		DumpPath:        cfg.Scan.DumpPath,
	}
}
