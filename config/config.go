// Package config defines the configuration of a task pool and how it is
// loaded.
//
// # Configuration Structure
//
//	Config
//	├── ID              - Pool identifier used in logs and metric labels
//	├── Mode            - "stealing" (per-worker deques) or "shared" (one queue)
//	├── Workers         - Worker count, 0 means runtime.NumCPU()
//	├── IdleSpins       - Yields before an idle worker parks, -1 never parks
//	├── PinWorkers      - Lock each worker to an OS thread pinned to one CPU
//	├── HistoryCapacity - Size of the recent execution ring
//	└── Log             - Level and format of the zap logger
//
// # Loading
//
// Load reads an optional YAML file, then TASKPOOL_* environment variables
// (TASKPOOL_WORKERS, TASKPOOL_LOG_LEVEL, ...), on top of the defaults:
//
//	cfg, err := config.Load("pool.yaml")
//	if err != nil {
//	    return err
//	}
//	logger, err := config.BuildLogger(cfg.Log)
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/Swind/go-task-pool/core"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "TASKPOOL"

type Config struct {
	ID              string `mapstructure:"id" yaml:"id" default:"pool"`
	Mode            string `mapstructure:"mode" yaml:"mode" default:"stealing"`
	Workers         int    `mapstructure:"workers" yaml:"workers" default:"0"`
	IdleSpins       int    `mapstructure:"idle_spins" yaml:"idle_spins" default:"64"`
	PinWorkers      bool   `mapstructure:"pin_workers" yaml:"pin_workers" default:"false"`
	HistoryCapacity int    `mapstructure:"history_capacity" yaml:"history_capacity" default:"100"`
	Log             Log    `mapstructure:"log" yaml:"log"`
}

type Log struct {
	Level  string `mapstructure:"level" yaml:"level" default:"info"`
	Format string `mapstructure:"format" yaml:"format" default:"console"`
}

// Default returns a Config with every default applied.
func Default() Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		// Only malformed default tags can fail here.
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return c
}

// Load builds a Config from defaults, the optional file at path and the
// environment. An empty path skips the file.
func Load(path string) (Config, error) {
	v := viper.New()
	return LoadWith(v, path)
}

// LoadWith is Load on a caller-provided viper instance, so command-line
// flags bound to v take precedence over file and environment.
func LoadWith(v *viper.Viper, path string) (Config, error) {
	cfg := Default()

	setDefaults(v, cfg)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during
// Unmarshal even when no file mentions it.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("id", cfg.ID)
	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("idle_spins", cfg.IdleSpins)
	v.SetDefault("pin_workers", cfg.PinWorkers)
	v.SetDefault("history_capacity", cfg.HistoryCapacity)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var err error
	if strings.TrimSpace(c.ID) == "" {
		err = multierr.Append(err, errors.New("id must not be empty"))
	}
	if _, perr := core.ParseMode(c.Mode); perr != nil {
		err = multierr.Append(err, perr)
	}
	if c.Workers < 0 {
		err = multierr.Append(err, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if c.IdleSpins < -1 {
		err = multierr.Append(err, fmt.Errorf("idle_spins must be >= -1, got %d", c.IdleSpins))
	}
	if c.HistoryCapacity < 0 {
		err = multierr.Append(err, fmt.Errorf("history_capacity must be >= 0, got %d", c.HistoryCapacity))
	}
	if _, lerr := parseLevel(c.Log.Level); lerr != nil {
		err = multierr.Append(err, lerr)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// PoolMode returns the parsed Mode. Call Validate first.
func (c Config) PoolMode() core.Mode {
	m, err := core.ParseMode(c.Mode)
	if err != nil {
		return core.ModeStealing
	}
	return m
}
