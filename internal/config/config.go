package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Capacity modes of the engine.
const (
	CapacityTotal     = "total"
	CapacityAvailable = "available"
)

type Config struct {
	Server struct {
		Address        string         `yaml:"address"`
		APIKeys        []APIKeyConfig `yaml:"api_keys"`
		RatePerSecond  float64        `yaml:"rate_per_second"`
		RateBurst      int            `yaml:"rate_burst"`
		ReadTimeoutSec int            `yaml:"read_timeout_seconds"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup BackupConfig `yaml:"backup"`

	Redis struct {
		Address     string `yaml:"address"`
		Password    string `yaml:"password"`
		DB          int    `yaml:"db"`
		SequenceKey string `yaml:"sequence_key"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Engine EngineConfig `yaml:"engine"`

	Housekeeping HousekeepingConfig `yaml:"housekeeping"`

	Catalog struct {
		Path string `yaml:"path"`
	} `yaml:"catalog"`
}

// APIKeyConfig grants a role to the holder of an API key.
type APIKeyConfig struct {
	Key  string `yaml:"key"`
	Role string `yaml:"role"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	StoragePath   string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// EngineConfig holds the billing constants and purge rules of the reservation engine.
type EngineConfig struct {
	CapacityMode            string  `yaml:"capacity_mode"`
	Deposit                 float64 `yaml:"deposit"`
	BreakfastPerPerson      float64 `yaml:"breakfast_per_person"`
	AdvancePurchaseDiscount float64 `yaml:"advance_purchase_discount"`
	PurgeAfterDays          int     `yaml:"purge_after_days"`
	StayRetentionYears      int     `yaml:"stay_retention_years"`
}

type HousekeepingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	ExportDir     string `yaml:"export_dir"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/hotelbook.db"
	}
	if c.Redis.SequenceKey == "" {
		c.Redis.SequenceKey = "hotelbook:reservation_number"
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "configs/hotels.yaml"
	}
	if c.Engine.CapacityMode == "" {
		c.Engine.CapacityMode = CapacityTotal
	}
	if c.Engine.Deposit == 0 {
		c.Engine.Deposit = 75
	}
	if c.Engine.BreakfastPerPerson == 0 {
		c.Engine.BreakfastPerPerson = 14
	}
	if c.Engine.AdvancePurchaseDiscount == 0 {
		c.Engine.AdvancePurchaseDiscount = 0.05
	}
	if c.Engine.PurgeAfterDays == 0 {
		c.Engine.PurgeAfterDays = 30
	}
	if c.Engine.StayRetentionYears == 0 {
		c.Engine.StayRetentionYears = 7
	}
	if c.Housekeeping.ExportDir == "" {
		c.Housekeeping.ExportDir = "exports"
	}
}

// Validate checks the values defaults cannot repair.
func (c *Config) Validate() error {
	switch c.Engine.CapacityMode {
	case CapacityTotal, CapacityAvailable:
	default:
		return fmt.Errorf("engine.capacity_mode: unknown mode '%s', expected total or available", c.Engine.CapacityMode)
	}
	if c.Engine.Deposit < 0 || c.Engine.BreakfastPerPerson < 0 {
		return fmt.Errorf("engine: deposit and breakfast_per_person cannot be negative")
	}
	if c.Engine.AdvancePurchaseDiscount < 0 || c.Engine.AdvancePurchaseDiscount >= 1 {
		return fmt.Errorf("engine.advance_purchase_discount must be in [0, 1), got %v", c.Engine.AdvancePurchaseDiscount)
	}
	if c.Server.RatePerSecond < 0 || c.Server.RateBurst < 0 {
		return fmt.Errorf("server: rate limit values cannot be negative")
	}
	return nil
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) HousekeepingInterval() time.Duration {
	if c.Housekeeping.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Housekeeping.IntervalHours) * time.Hour
}
