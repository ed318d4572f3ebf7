package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/seesaw/internal/domain"
	"gopkg.in/yaml.v3"
)

// Config holds the validated parameters of one rebalancing engine.
type Config struct {
	Platform            string
	Pair                domain.Pair
	Quote               string
	Window              time.Duration
	Threshold           decimal.Decimal
	SizingFraction      decimal.Decimal
	MinTradeQuantity    decimal.Decimal
	TickInterval        time.Duration
	RetentionMultiplier int
	StateDir            string
	WebAddr             string
	WebTLSHosts         []string

	Retry RetryConfig
}

// RetryConfig bounds the backoff loop around transient exchange failures.
type RetryConfig struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

// ConfigTmp is the yaml shadow of Config, also used by the setup wizard to
// emit generated config files.
type ConfigTmp struct {
	Platform            string        `yaml:"platform"`
	Pair                string        `yaml:"pair"`
	Quote               string        `yaml:"quote"`
	Window              time.Duration `yaml:"window"`
	Threshold           string        `yaml:"threshold"`
	SizingFraction      string        `yaml:"sizing_fraction"`
	MinTradeQuantity    string        `yaml:"min_trade_quantity,omitempty"`
	TickInterval        time.Duration `yaml:"tick_interval"`
	RetentionMultiplier int           `yaml:"retention_multiplier,omitempty"`
	StateDir            string        `yaml:"state_dir,omitempty"`
	WebAddr             string        `yaml:"web_addr,omitempty"`
	WebTLSHosts         []string      `yaml:"web_tls_hosts,omitempty"`

	Retry struct {
		BaseDelay   time.Duration `yaml:"base_delay,omitempty"`
		MaxDelay    time.Duration `yaml:"max_delay,omitempty"`
		MaxAttempts int           `yaml:"max_attempts,omitempty"`
	} `yaml:"retry,omitempty"`
}

// Get reads configuration from the yaml file named with --config, or from
// CLI flags when no file is given. Each yaml entry configures one engine.
func Get() ([]Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	platform := flag.String("platform", "simulate", "exchange platform: binance, bybit, hyperliquid or simulate")
	pairFlag := flag.String("pair", "ETH_BTC", "asset pair to rebalance, example: ETH_BTC")
	quote := flag.String("quote", "USDT", "quote currency conversions route through")
	window := flag.Duration("window", time.Hour, "divergence observation window")
	threshold := flag.String("threshold", "0.05", "divergence threshold as a fraction, example: 0.05 for 5%")
	fraction := flag.String("fraction", "0.25", "fraction of the source balance converted per trigger")
	minQty := flag.String("minquantity", "0", "balance below which rebalancing is skipped")
	tick := flag.Duration("tickinterval", 5*time.Minute, "sampling tick interval")
	stateDir := flag.String("statedir", "wal", "directory for the engine state log")
	webAddr := flag.String("webaddr", "", "listen address of the status server, empty disables it")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	tmp := ConfigTmp{
		Platform:         *platform,
		Pair:             *pairFlag,
		Quote:            *quote,
		Window:           *window,
		Threshold:        *threshold,
		SizingFraction:   *fraction,
		MinTradeQuantity: *minQty,
		TickInterval:     *tick,
		StateDir:         *stateDir,
		WebAddr:          *webAddr,
	}
	conf, err := buildConfig(tmp)
	if err != nil {
		return nil, err
	}
	return []Config{conf}, nil
}

func getYaml(path string) ([]Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tmps []ConfigTmp
	if err := yaml.Unmarshal(f, &tmps); err != nil {
		return nil, err
	}
	if len(tmps) == 0 {
		return nil, fmt.Errorf("yaml config %s contains no engine entries", path)
	}

	configs := make([]Config, 0, len(tmps))
	for _, tmp := range tmps {
		conf, err := buildConfig(tmp)
		if err != nil {
			return nil, err
		}
		configs = append(configs, conf)
	}
	return configs, nil
}

func buildConfig(tmp ConfigTmp) (Config, error) {
	pair, err := domain.PairFromString(tmp.Pair)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'pair' param: %s, error: %w", tmp.Pair, err)
	}

	switch tmp.Platform {
	case "binance", "bybit", "hyperliquid", "simulate":
	case "":
		return Config{}, fmt.Errorf("'platform' param is required")
	default:
		return Config{}, fmt.Errorf("unsupported platform %q", tmp.Platform)
	}

	threshold, err := decimal.NewFromString(tmp.Threshold)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'threshold' param (correct format is 0.05): %w", err)
	}
	if !threshold.IsPositive() {
		return Config{}, fmt.Errorf("'threshold' must be positive, got %s", threshold)
	}

	fraction, err := decimal.NewFromString(tmp.SizingFraction)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'sizing_fraction' param (correct format is 0.25): %w", err)
	}
	if !fraction.IsPositive() || fraction.GreaterThan(decimal.NewFromInt(1)) {
		return Config{}, fmt.Errorf("'sizing_fraction' must be in (0, 1], got %s", fraction)
	}

	minQty := decimal.Zero
	if tmp.MinTradeQuantity != "" {
		minQty, err = decimal.NewFromString(tmp.MinTradeQuantity)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'min_trade_quantity' param: %w", err)
		}
		if minQty.IsNegative() {
			return Config{}, fmt.Errorf("'min_trade_quantity' must not be negative, got %s", minQty)
		}
	}

	if tmp.Window <= 0 {
		return Config{}, fmt.Errorf("'window' must be a positive duration, got %s", tmp.Window)
	}
	if tmp.TickInterval <= 0 {
		return Config{}, fmt.Errorf("'tick_interval' must be a positive duration, got %s", tmp.TickInterval)
	}

	retention := tmp.RetentionMultiplier
	if retention == 0 {
		retention = 2
	}
	if retention < 1 {
		return Config{}, fmt.Errorf("'retention_multiplier' must be at least 1, got %d", retention)
	}

	quote := tmp.Quote
	if quote == "" {
		quote = "USDT"
	}
	if pair.Contains(quote) {
		return Config{}, fmt.Errorf("quote currency %s cannot be one of the pair's assets", quote)
	}

	stateDir := tmp.StateDir
	if stateDir == "" {
		stateDir = "wal"
	}

	retry := RetryConfig{
		BaseDelay:   tmp.Retry.BaseDelay,
		MaxDelay:    tmp.Retry.MaxDelay,
		MaxAttempts: tmp.Retry.MaxAttempts,
	}
	if retry.BaseDelay == 0 {
		retry.BaseDelay = time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.MaxAttempts == 0 {
		retry.MaxAttempts = 5
	}
	if retry.BaseDelay < 0 || retry.MaxDelay < retry.BaseDelay || retry.MaxAttempts < 1 {
		return Config{}, fmt.Errorf("invalid 'retry' params: base_delay=%s max_delay=%s max_attempts=%d",
			retry.BaseDelay, retry.MaxDelay, retry.MaxAttempts)
	}

	return Config{
		Platform:            tmp.Platform,
		Pair:                pair,
		Quote:               quote,
		Window:              tmp.Window,
		Threshold:           threshold,
		SizingFraction:      fraction,
		MinTradeQuantity:    minQty,
		TickInterval:        tmp.TickInterval,
		RetentionMultiplier: retention,
		StateDir:            stateDir,
		WebAddr:             tmp.WebAddr,
		WebTLSHosts:         tmp.WebTLSHosts,
		Retry:               retry,
	}, nil
}
