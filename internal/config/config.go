// Package config provides configuration management for the simulated
// trading application.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Account    AccountConfig    `mapstructure:"account"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// AccountConfig holds trading account configuration.
type AccountConfig struct {
	CashTicker     string  `mapstructure:"cash_ticker"`
	InitialDeposit float64 `mapstructure:"initial_deposit"`
	Mode           string  `mapstructure:"mode"` // "basic", "short", "full"
	Commission     float64 `mapstructure:"commission"`
	Leverage       float64 `mapstructure:"leverage"`
	Workers        int     `mapstructure:"workers"`
}

// SimulationConfig holds order simulation configuration.
type SimulationConfig struct {
	SlippagePercent float64 `mapstructure:"slippage_percent"`
	MinDelayMs      int     `mapstructure:"min_delay_ms"`
	MaxDelayMs      int     `mapstructure:"max_delay_ms"`
	PriceHistory    string  `mapstructure:"price_history"` // CSV path
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/papertrade"
	}
	return filepath.Join(home, ".config", "papertrade")
}

// Load loads configuration from the specified directory. If configDir is
// empty, uses the default config directory. A missing config file yields
// the defaults.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("account.cash_ticker", "USD")
	v.SetDefault("account.initial_deposit", 100000.0)
	v.SetDefault("account.mode", "full")
	v.SetDefault("account.commission", 7.95)
	v.SetDefault("account.leverage", 1.0)
	v.SetDefault("account.workers", 0)
	v.SetDefault("simulation.slippage_percent", 1.0)
	v.SetDefault("simulation.min_delay_ms", 25)
	v.SetDefault("simulation.max_delay_ms", 150)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", false)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PAPERTRADE_MODE"); v != "" {
		cfg.Account.Mode = v
	}
	if v := os.Getenv("PAPERTRADE_PRICE_HISTORY"); v != "" {
		cfg.Simulation.PriceHistory = v
	}
	if v := os.Getenv("PAPERTRADE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Account.Mode {
	case "", "basic", "short", "full":
	default:
		return fmt.Errorf("invalid account mode: %s (must be 'basic', 'short' or 'full')", c.Account.Mode)
	}
	if c.Account.InitialDeposit < 0 {
		return fmt.Errorf("initial_deposit must be non-negative")
	}
	if c.Account.Commission < 0 {
		return fmt.Errorf("commission must be non-negative")
	}
	if c.Account.Leverage != 0 && c.Account.Leverage < 1.0 {
		return fmt.Errorf("leverage must be at least 1.0")
	}
	if c.Simulation.SlippagePercent < 0 {
		return fmt.Errorf("slippage_percent must be non-negative")
	}
	if c.Simulation.MinDelayMs < 0 || c.Simulation.MaxDelayMs < c.Simulation.MinDelayMs {
		return fmt.Errorf("delay bounds must satisfy 0 <= min_delay_ms <= max_delay_ms")
	}
	return nil
}
