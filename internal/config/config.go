// Package config loads and validates the observer's YAML configuration:
// which venues to monitor, the arbitrage scan cadence and thresholds, and
// per-venue connection settings.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration root.
type Config struct {
	// App holds application-wide settings such as the log level.
	App AppConfig `yaml:"app"`
	// Venues lists every exchange to stream and scan; at least one is
	// required, and at least two are needed for any opportunity to be found.
	Venues []string `yaml:"venues"`
	// Scanner configures the arbitrage scan loop.
	Scanner ScannerConfig `yaml:"scanner"`
	// Session configures the shared WebSocket session behavior applied to
	// every venue.
	Session SessionConfig `yaml:"session"`
	// HTTP configures the shared REST client used for symbol discovery.
	HTTP HTTPConfig `yaml:"http"`
	// Output configures the optional append-only audit log.
	Output OutputConfig `yaml:"output"`
}

// AppConfig holds application-wide settings.
type AppConfig struct {
	// Name identifies the process in logs.
	Name string `yaml:"name"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// ScannerConfig configures the periodic cross-venue scan.
type ScannerConfig struct {
	// CheckIntervalSeconds is the self-paced delay between scan passes.
	CheckIntervalSeconds int `yaml:"check_interval_seconds"`
	// MinProfitPercent is the minimum profit, as a percent (0.1 = 0.1%), for
	// a pair to be reported as an opportunity.
	MinProfitPercent float64 `yaml:"min_profit_percent"`
	// MaxDataAgeSeconds is the freshness bound applied to both legs of a
	// candidate pair before the scan considers it.
	MaxDataAgeSeconds int `yaml:"max_data_age_seconds"`
}

// SessionConfig configures the shared WebSocket session state machine.
type SessionConfig struct {
	// ReadTimeoutSeconds is the per-frame read deadline; exceeding it is
	// treated as a transient network error and triggers reconnect.
	ReadTimeoutSeconds int `yaml:"read_timeout_seconds"`
	// PingIntervalSeconds is how often the session sends a heartbeat.
	PingIntervalSeconds int `yaml:"ping_interval_seconds"`
	// ReconnectMaxDelaySeconds caps the exponential backoff between
	// reconnect attempts.
	ReconnectMaxDelaySeconds int `yaml:"reconnect_max_delay_seconds"`
	// ShutdownDeadlineSeconds bounds how long Stop waits for a session to
	// exit cleanly before forcing its connection closed.
	ShutdownDeadlineSeconds int `yaml:"shutdown_deadline_seconds"`
}

// HTTPConfig configures the shared REST client used for venue symbol
// discovery.
type HTTPConfig struct {
	// TimeoutSeconds bounds a single REST call.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// RequestsPerSecond caps the rate of REST calls per venue.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// OutputConfig configures the optional JSONL audit log.
type OutputConfig struct {
	// Enabled turns the audit log on; when false, no file is opened.
	Enabled bool `yaml:"enabled"`
	// Path is the JSONL file to append opportunity and status records to.
	Path string `yaml:"path"`
	// BufferSize is the async writer's channel buffer.
	BufferSize int `yaml:"buffer_size"`
}

// Load reads path, parses it as YAML, applies defaults, and validates the
// result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.App.Name == "" {
		c.App.Name = "exchange-observer"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if len(c.Venues) == 0 {
		c.Venues = []string{"Binance", "Bybit", "Gate.io"}
	}

	if c.Scanner.CheckIntervalSeconds == 0 {
		c.Scanner.CheckIntervalSeconds = 5
	}
	if c.Scanner.MinProfitPercent == 0 {
		c.Scanner.MinProfitPercent = 0.1
	}
	if c.Scanner.MaxDataAgeSeconds == 0 {
		c.Scanner.MaxDataAgeSeconds = 10
	}

	if c.Session.ReadTimeoutSeconds == 0 {
		c.Session.ReadTimeoutSeconds = 25
	}
	if c.Session.PingIntervalSeconds == 0 {
		c.Session.PingIntervalSeconds = 20
	}
	if c.Session.ReconnectMaxDelaySeconds == 0 {
		c.Session.ReconnectMaxDelaySeconds = 120
	}
	if c.Session.ShutdownDeadlineSeconds == 0 {
		c.Session.ShutdownDeadlineSeconds = 5
	}

	if c.HTTP.TimeoutSeconds == 0 {
		c.HTTP.TimeoutSeconds = 10
	}
	if c.HTTP.RequestsPerSecond == 0 {
		c.HTTP.RequestsPerSecond = 5
	}

	if c.Output.Enabled && c.Output.Path == "" {
		c.Output.Path = "./output/observer.jsonl"
	}
	if c.Output.BufferSize == 0 {
		c.Output.BufferSize = 1000
	}
}

// Validate checks every required field and numeric bound, accumulating
// every violation into one error rather than failing on the first.
func (c *Config) Validate() error {
	var errs []string

	if len(c.Venues) == 0 {
		errs = append(errs, "venues: at least one venue must be configured")
	}
	knownVenues := map[string]bool{"Binance": true, "Bybit": true, "Gate.io": true}
	for _, v := range c.Venues {
		if !knownVenues[v] {
			errs = append(errs, fmt.Sprintf("venues: unknown venue %q", v))
		}
	}

	if c.Scanner.CheckIntervalSeconds <= 0 {
		errs = append(errs, "scanner.check_interval_seconds: must be positive")
	}
	if c.Scanner.MinProfitPercent <= 0 {
		errs = append(errs, "scanner.min_profit_percent: must be positive")
	}
	if c.Scanner.MaxDataAgeSeconds <= 0 {
		errs = append(errs, "scanner.max_data_age_seconds: must be positive")
	}

	if c.Session.ReadTimeoutSeconds <= 0 {
		errs = append(errs, "session.read_timeout_seconds: must be positive")
	}
	if c.Session.PingIntervalSeconds <= 0 {
		errs = append(errs, "session.ping_interval_seconds: must be positive")
	}
	if c.Session.ReconnectMaxDelaySeconds <= 0 {
		errs = append(errs, "session.reconnect_max_delay_seconds: must be positive")
	}
	if c.Session.ShutdownDeadlineSeconds <= 0 {
		errs = append(errs, "session.shutdown_deadline_seconds: must be positive")
	}

	if c.HTTP.TimeoutSeconds <= 0 {
		errs = append(errs, "http.timeout_seconds: must be positive")
	}
	if c.HTTP.RequestsPerSecond <= 0 {
		errs = append(errs, "http.requests_per_second: must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.App.LogLevel)] {
		errs = append(errs, fmt.Sprintf("app.log_level: invalid level %q, must be one of debug, info, warn, error", c.App.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Scanner.CheckIntervalSeconds) * time.Second
}

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Session.ReadTimeoutSeconds) * time.Second
}

func (c *Config) PingInterval() time.Duration {
	return time.Duration(c.Session.PingIntervalSeconds) * time.Second
}

func (c *Config) ReconnectMaxDelay() time.Duration {
	return time.Duration(c.Session.ReconnectMaxDelaySeconds) * time.Second
}

func (c *Config) ShutdownDeadline() time.Duration {
	return time.Duration(c.Session.ShutdownDeadlineSeconds) * time.Second
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
