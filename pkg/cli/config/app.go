package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

// AppConfig is the optional TOML configuration file for bot behavior that
// does not belong in flags: scheduling cadence and default task delay.
type AppConfig struct {
	Scheduler SchedulerConfig `toml:"scheduler"`
}

// SchedulerConfig tunes the background task loop
type SchedulerConfig struct {
	// Interval between poll ticks, e.g. "30s"
	Interval string `toml:"interval"`
	// TaskDelay applied by the "schedule task" command, e.g. "5m"
	TaskDelay string `toml:"task_delay"`
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	if a.Scheduler.Interval != "" {
		if _, err := time.ParseDuration(a.Scheduler.Interval); err != nil {
			return goerr.Wrap(err, "invalid scheduler interval", goerr.V("interval", a.Scheduler.Interval))
		}
	}
	if a.Scheduler.TaskDelay != "" {
		if _, err := time.ParseDuration(a.Scheduler.TaskDelay); err != nil {
			return goerr.Wrap(err, "invalid task delay", goerr.V("task_delay", a.Scheduler.TaskDelay))
		}
	}
	return nil
}

// Interval returns the configured tick interval, or fallback when unset
func (a *AppConfig) Interval(fallback time.Duration) time.Duration {
	if a.Scheduler.Interval == "" {
		return fallback
	}
	d, err := time.ParseDuration(a.Scheduler.Interval)
	if err != nil {
		return fallback
	}
	return d
}

// TaskDelay returns the configured task delay, or fallback when unset
func (a *AppConfig) TaskDelay(fallback time.Duration) time.Duration {
	if a.Scheduler.TaskDelay == "" {
		return fallback
	}
	d, err := time.ParseDuration(a.Scheduler.TaskDelay)
	if err != nil {
		return fallback
	}
	return d
}

// LoadAppConfig reads and validates a TOML configuration file. An empty path
// yields a zero-value config with all defaults in effect.
func LoadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse config file", goerr.V("path", path))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
