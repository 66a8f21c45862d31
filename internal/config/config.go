package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all ecan configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	ECAN       ECANConfig       `yaml:"ecan"`
	Forgetting ForgettingConfig `yaml:"forgetting"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
}

type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Bind    string `yaml:"bind"`
	Port    int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // "" resolves to store.DefaultDBPath(), ":memory:" uses the in-memory store
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// ECANConfig carries the attention-economy parameters the rent agent
// reloads on every LoadParams.
type ECANConfig struct {
	StartingSTIFunds int64 `yaml:"starting_sti_funds"`
	StartingLTIFunds int64 `yaml:"starting_lti_funds"`
	TargetSTIFunds   int64 `yaml:"target_sti_funds"`
	TargetLTIFunds   int64 `yaml:"target_lti_funds"`
	STIFundsBuffer   int64 `yaml:"sti_funds_buffer"`
	LTIFundsBuffer   int64 `yaml:"lti_funds_buffer"`
	STIAtomRent      int64 `yaml:"sti_atom_rent"`
	LTIAtomRent      int64 `yaml:"lti_atom_rent"`
}

type ForgettingConfig struct {
	MaxSize         int     `yaml:"max_size"`
	ForgetThreshold float64 `yaml:"forget_threshold"`
	Scoring         string  `yaml:"scoring"` // "strength" or "strength_confidence"
}

type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Default returns a Config with sensible defaults. Starting funds equal the
// targets so a fresh bank charges exactly the base rent.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Enabled: true,
			Bind:    "127.0.0.1",
			Port:    37778,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		ECAN: ECANConfig{
			StartingSTIFunds: 10000,
			StartingLTIFunds: 10000,
			TargetSTIFunds:   10000,
			TargetLTIFunds:   10000,
			STIFundsBuffer:   10000,
			LTIFundsBuffer:   10000,
			STIAtomRent:      10,
			LTIAtomRent:      10,
		},
		Forgetting: ForgettingConfig{
			MaxSize:         100000,
			ForgetThreshold: 0.3,
			Scoring:         "strength",
		},
		Scheduler: SchedulerConfig{
			Interval: 5 * time.Second,
		},
	}
}

// DefaultPath returns the default config file path: ~/.ecan/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".ecan", "config.yaml"), nil
}

// Load reads a YAML file over the defaults and applies environment
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ECAN_DB"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("ECAN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}

// Validate checks values the agents cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.ECAN.STIFundsBuffer <= 0 {
		errs = append(errs, fmt.Errorf("ecan.sti_funds_buffer must be positive, got %d", c.ECAN.STIFundsBuffer))
	}
	if c.ECAN.LTIFundsBuffer <= 0 {
		errs = append(errs, fmt.Errorf("ecan.lti_funds_buffer must be positive, got %d", c.ECAN.LTIFundsBuffer))
	}
	if c.ECAN.STIAtomRent < 0 || c.ECAN.LTIAtomRent < 0 {
		errs = append(errs, fmt.Errorf("ecan atom rent must not be negative"))
	}
	if c.Forgetting.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("forgetting.max_size must not be negative, got %d", c.Forgetting.MaxSize))
	}
	if c.Forgetting.ForgetThreshold < 0 || c.Forgetting.ForgetThreshold > 1 {
		errs = append(errs, fmt.Errorf("forgetting.forget_threshold must be in [0,1], got %g", c.Forgetting.ForgetThreshold))
	}
	switch c.Forgetting.Scoring {
	case "", "strength", "strength_confidence":
	default:
		errs = append(errs, fmt.Errorf("forgetting.scoring: unknown policy %q", c.Forgetting.Scoring))
	}
	if c.Scheduler.Interval <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.interval must be positive, got %s", c.Scheduler.Interval))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
