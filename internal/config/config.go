// Package config loads the application configuration from a YAML file with
// optional .env overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"arb-backtest-lab/internal/domain"
)

// Config is the full application configuration.
type Config struct {
	Backtest BacktestSection `yaml:"backtest"`
	Storage  StorageSection  `yaml:"storage"`
	Metrics  MetricsSection  `yaml:"metrics"`
	Log      LogSection      `yaml:"log"`
}

// BacktestSection maps one-to-one onto a backtest run configuration.
// Dates are YYYY-MM-DD; EndDate is exclusive.
type BacktestSection struct {
	StartDate      string                 `yaml:"start_date"`
	EndDate        string                 `yaml:"end_date"`
	InitialCapital float64                `yaml:"initial_capital"`
	MaxDrawdown    float64                `yaml:"max_drawdown"`
	Strategies     []string               `yaml:"strategies"`
	Networks       []string               `yaml:"networks"`
	SlippageModel  string                 `yaml:"slippage_model"`
	FeeModel       string                 `yaml:"fee_model"`
	LatencyModel   string                 `yaml:"latency_model"`
	Benchmark      string                 `yaml:"benchmark"`
	Seed           int64                  `yaml:"seed"`
	Risk           *domain.RiskParameters `yaml:"risk"` // nil means live defaults
}

// StorageSection selects the trade/result backends.
type StorageSection struct {
	Backend       string `yaml:"backend"` // memory | postgres | clickhouse
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// MetricsSection controls the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LogSection controls log output.
type LogSection struct {
	Verbose bool   `yaml:"verbose"`
	Prefix  string `yaml:"prefix"`
}

// Load reads configuration from a YAML file and the .env file if present.
// Environment variables override the YAML values for matching keys.
func Load(path string) (*Config, error) {
	// Load .env if present (missing file is fine)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// ToBacktestConfig converts the YAML section into the domain run config.
func (c *Config) ToBacktestConfig() (*domain.BacktestConfig, error) {
	start, err := time.Parse("2006-01-02", c.Backtest.StartDate)
	if err != nil {
		return nil, fmt.Errorf("config: parse start_date %q: %w", c.Backtest.StartDate, err)
	}
	end, err := time.Parse("2006-01-02", c.Backtest.EndDate)
	if err != nil {
		return nil, fmt.Errorf("config: parse end_date %q: %w", c.Backtest.EndDate, err)
	}

	risk := domain.DefaultRiskParameters
	if c.Backtest.Risk != nil {
		risk = *c.Backtest.Risk
	}
	if err := risk.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &domain.BacktestConfig{
		StartDate:      start,
		EndDate:        end,
		InitialCapital: c.Backtest.InitialCapital,
		MaxDrawdown:    c.Backtest.MaxDrawdown,
		Strategies:     c.Backtest.Strategies,
		Networks:       c.Backtest.Networks,
		RiskParams:     risk,
		SlippageModel:  domain.SlippageModel(c.Backtest.SlippageModel),
		FeeModel:       domain.FeeModel(c.Backtest.FeeModel),
		LatencyModel:   domain.LatencyModel(c.Backtest.LatencyModel),
		Benchmark:      c.Backtest.Benchmark,
	}, nil
}

// applyEnvOverrides overrides values with environment variables when set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		cfg.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}

// setDefaults fills required values that the file left unset.
func setDefaults(cfg *Config) {
	if cfg.Backtest.InitialCapital <= 0 {
		cfg.Backtest.InitialCapital = 10000
	}
	if cfg.Backtest.MaxDrawdown <= 0 {
		cfg.Backtest.MaxDrawdown = 20
	}
	if cfg.Backtest.SlippageModel == "" {
		cfg.Backtest.SlippageModel = string(domain.SlippageRealistic)
	}
	if cfg.Backtest.FeeModel == "" {
		cfg.Backtest.FeeModel = string(domain.FeeActual)
	}
	if cfg.Backtest.LatencyModel == "" {
		cfg.Backtest.LatencyModel = string(domain.LatencyRealistic)
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9091"
	}
	if cfg.Log.Prefix == "" {
		cfg.Log.Prefix = "[backtest] "
	}
}
