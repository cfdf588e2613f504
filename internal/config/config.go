package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// Credentials come from the environment only; they are never written to the
// config file.
type Credentials struct {
	AlpacaKey    string `env:"ALPACA_API_KEY,required"`
	AlpacaSecret string `env:"ALPACA_API_SECRET,required"`
	PolygonKey   string `env:"POLYGON_API_KEY,required"`

	MinioEndpoint  string `env:"MINIO_ENDPOINT,required"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY,required"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY,required"`
	MinioSecure    bool   `env:"MINIO_SECURE" envDefault:"true"`
}

type StrategyConfig struct {
	// TakeProfitPct and StopLossPct drifted across historical script
	// variants (12/6, 12/7); this file is the single source of truth.
	TakeProfitPct  float64 `yaml:"take_profit_pct"`
	StopLossPct    float64 `yaml:"stop_loss_pct"`
	LeverageFactor float64 `yaml:"leverage_factor"`

	MinPrecision        float64 `yaml:"min_precision"`
	MinBalancedAccuracy float64 `yaml:"min_balanced_accuracy"`
	MinTrainingRows     int64   `yaml:"min_training_rows"`
	ModelFreshnessHours int     `yaml:"model_freshness_hours"`

	HistoryLookbackDays int `yaml:"history_lookback_days"`
	SettleDelayMin      int `yaml:"settle_delay_min"`
}

type MonitorConfig struct {
	PollIntervalSec  int `yaml:"poll_interval_sec"`
	GuardIntervalSec int `yaml:"guard_interval_sec"`
}

type StorageConfig struct {
	DBPath      string `yaml:"db_path"`
	StagingDir  string `yaml:"staging_dir"`
	ModelBucket string `yaml:"model_bucket"`
}

type Config struct {
	Paper    bool           `yaml:"paper"`
	Strategy StrategyConfig `yaml:"strategy"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Storage  StorageConfig  `yaml:"storage"`
	Backfill struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"backfill"`
	MarketData struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"market_data"`
	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`

	Credentials Credentials `yaml:"-"`
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg := defaults()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := env.Parse(&cfg.Credentials); err != nil {
		return nil, fmt.Errorf("config: credentials: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{Paper: true}
	cfg.Strategy = StrategyConfig{
		TakeProfitPct:       12.0,
		StopLossPct:         6.0,
		LeverageFactor:      2.0,
		MinPrecision:        0.6,
		MinBalancedAccuracy: 0.5,
		MinTrainingRows:     200,
		ModelFreshnessHours: 12,
		HistoryLookbackDays: 40,
		SettleDelayMin:      15,
	}
	cfg.Monitor = MonitorConfig{
		PollIntervalSec:  60,
		GuardIntervalSec: 90,
	}
	cfg.Storage = StorageConfig{
		DBPath:      "trader.db",
		StagingDir:  "staging",
		ModelBucket: "models",
	}
	cfg.Backfill.Concurrency = 8
	cfg.MarketData.RequestsPerSecond = 5
	cfg.Logging.Level = "info"
	return cfg
}

func (c *MonitorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

func (c *MonitorConfig) GuardInterval() time.Duration {
	return time.Duration(c.GuardIntervalSec) * time.Second
}

func (c *StrategyConfig) ModelFreshness() time.Duration {
	return time.Duration(c.ModelFreshnessHours) * time.Hour
}

func (c *StrategyConfig) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMin) * time.Minute
}
