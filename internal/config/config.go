// Package config loads the prioflow command configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vnykmshr/prioflow/pkg/common/validation"
	"github.com/vnykmshr/prioflow/pkg/scheduling/workerpool"
)

// Config is the top-level configuration file.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Pool      PoolConfig      `yaml:"pool"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Server    ServerConfig    `yaml:"server"`
}

// LoggingConfig selects the log level and encoder.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// PoolConfig configures the worker pool.
type PoolConfig struct {
	Name               string `yaml:"name"`
	Workers            int    `yaml:"workers"`
	MultiThreadedAdmin bool   `yaml:"multi_threaded_admin"`
	FailureIsolation   bool   `yaml:"failure_isolation"`
	Metrics            bool   `yaml:"metrics"`
}

// SchedulerConfig configures the scheduler feeding the pool.
type SchedulerConfig struct {
	Name         string        `yaml:"name"`
	TickInterval time.Duration `yaml:"tick_interval"`
	MaxTasks     int           `yaml:"max_tasks"`
	Location     string        `yaml:"location"` // IANA zone, empty for local time
}

// ServerConfig configures the admin HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Pool: PoolConfig{
			Name:             "default",
			Workers:          4,
			FailureIsolation: true,
			Metrics:          true,
		},
		Scheduler: SchedulerConfig{
			Name:         "default",
			TickInterval: 50 * time.Millisecond,
			MaxTasks:     10000,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load reads path over the defaults. Fields missing from the file keep
// their default values; unknown fields are rejected.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes YAML from r over the defaults and validates the result.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := validation.ValidateNonNegative("config", "pool.workers", c.Pool.Workers); err != nil {
		return err
	}
	if err := validation.ValidatePositiveDuration("config", "scheduler.tick_interval", c.Scheduler.TickInterval); err != nil {
		return err
	}
	if err := validation.ValidatePositive("config", "scheduler.max_tasks", c.Scheduler.MaxTasks); err != nil {
		return err
	}
	if err := validation.ValidateNotEmpty("config", "server.addr", c.Server.Addr); err != nil {
		return err
	}
	if _, err := c.Scheduler.location(); err != nil {
		return err
	}
	return nil
}

// WorkerPool converts the pool section into a workerpool.Config.
func (p PoolConfig) WorkerPool(logger *zap.Logger) workerpool.Config {
	return workerpool.Config{
		Name:                    p.Name,
		WorkerCount:             p.Workers,
		MultiThreadedAdmin:      p.MultiThreadedAdmin,
		DisableFailureIsolation: !p.FailureIsolation,
		Logger:                  logger,
	}
}

// LoadLocation resolves the configured time zone.
func (s SchedulerConfig) LoadLocation() *time.Location {
	loc, err := s.location()
	if err != nil {
		return time.Local
	}
	return loc
}

func (s SchedulerConfig) location() (*time.Location, error) {
	if s.Location == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Location)
	if err != nil {
		return nil, fmt.Errorf("scheduler.location %q: %w", s.Location, err)
	}
	return loc, nil
}
