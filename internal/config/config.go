// Package config loads the serve-mode configuration from YAML. A missing
// file is not an error; the defaults are a working local setup.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML can carry human-readable values
// like "250ms" or "5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root of the YAML document.
type Config struct {
	Dashboard Dashboard `yaml:"dashboard"`
	Demo      Demo      `yaml:"demo"`
}

// Dashboard configures the HTTP diagnostics server.
type Dashboard struct {
	Addr            string   `yaml:"addr"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// Demo configures the synthetic workload that serve mode runs so the
// dashboard has live traffic to show.
type Demo struct {
	Enabled bool `yaml:"enabled"`

	// Scenario selects the workload: "ordered" acquires locks in a fixed
	// global order and never deadlocks; "inverted" acquires two locks in
	// conflicting orders and periodically trips the detector.
	Scenario string `yaml:"scenario"`

	Workers  int      `yaml:"workers"`
	Interval Duration `yaml:"interval"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Dashboard: Dashboard{
			Addr:            "127.0.0.1:8787",
			ShutdownTimeout: Duration(5 * time.Second),
		},
		Demo: Demo{
			Enabled:  true,
			Scenario: "inverted",
			Workers:  2,
			Interval: Duration(250 * time.Millisecond),
		},
	}
}

// Load reads and validates a config file. Fields absent from the file keep
// their defaults. An empty path or a missing file yields Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the rest of the program cannot act on.
func (c Config) Validate() error {
	if c.Dashboard.Addr == "" {
		return errors.New("dashboard.addr must not be empty")
	}
	if c.Demo.Enabled {
		switch c.Demo.Scenario {
		case "ordered", "inverted":
		default:
			return fmt.Errorf("demo.scenario %q is not one of: ordered, inverted", c.Demo.Scenario)
		}
		if c.Demo.Workers < 1 {
			return fmt.Errorf("demo.workers must be at least 1, got %d", c.Demo.Workers)
		}
		if c.Demo.Interval <= 0 {
			return errors.New("demo.interval must be positive")
		}
	}
	return nil
}
