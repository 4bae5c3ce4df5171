package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"poolScope/internal/model"
)

// Scheduling modes.
const (
	ModeFixed  = "fixed"
	ModeMinGap = "mingap"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL                string
	PGDSN                 string
	FetchInterval         time.Duration
	MinCollectionInterval time.Duration
	BatchSize             int
	BaseBackoff           time.Duration
	MaxBackoff            time.Duration
	ScheduleMode          string
	LogLevel              string
	Pools                 []model.Pool
}

// Load merges config file, environment variables, and flags into Config.
// The pool list comes from the config file only.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COLLECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("fetch-interval", time.Minute)
	v.SetDefault("min-collection-interval", 30*time.Second)
	v.SetDefault("batch-size", 4)
	v.SetDefault("base-backoff", 500*time.Millisecond)
	v.SetDefault("max-backoff", time.Minute)
	v.SetDefault("schedule-mode", ModeFixed)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var pools []model.Pool
	if err := v.UnmarshalKey("pools", &pools); err != nil {
		return Config{}, fmt.Errorf("parse pools: %w", err)
	}

	cfg := Config{
		RPCURL:                v.GetString("rpc"),
		PGDSN:                 v.GetString("pg-dsn"),
		FetchInterval:         v.GetDuration("fetch-interval"),
		MinCollectionInterval: v.GetDuration("min-collection-interval"),
		BatchSize:             v.GetInt("batch-size"),
		BaseBackoff:           v.GetDuration("base-backoff"),
		MaxBackoff:            v.GetDuration("max-backoff"),
		ScheduleMode:          v.GetString("schedule-mode"),
		LogLevel:              v.GetString("log-level"),
		Pools:                 pools,
	}

	return cfg, nil
}

// Validate checks the values a collector run requires.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if c.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}
	if len(c.Pools) == 0 {
		return fmt.Errorf("at least one pool is required")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if c.FetchInterval <= 0 {
		return fmt.Errorf("fetch interval must be positive")
	}
	if c.MaxBackoff < c.BaseBackoff {
		return fmt.Errorf("max backoff must be >= base backoff")
	}
	if c.ScheduleMode != ModeFixed && c.ScheduleMode != ModeMinGap {
		return fmt.Errorf("schedule mode must be %q or %q", ModeFixed, ModeMinGap)
	}
	for _, pool := range c.Pools {
		if pool.Address == "" {
			return fmt.Errorf("pool address is required")
		}
		if pool.TickSpacing <= 0 {
			return fmt.Errorf("pool %s: tick spacing must be positive", pool.Address)
		}
	}
	return nil
}
