package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const (
	EnvAPIKey = "GEMINI_API_KEY"
	EnvConfig = "AGENTIA_CONFIG"
	EnvModel  = "AGENTIA_MODEL"
)

// Config holds the application configuration.
type Config struct {
	GeminiAPIKey string `yaml:"-"`

	Model                  string        `yaml:"model"`
	TickMinutes            int           `yaml:"tick_minutes"`
	StartTime              time.Time     `yaml:"start_time"`
	MemoryCapacity         int           `yaml:"memory_capacity"`
	DecisionTimeout        time.Duration `yaml:"decision_timeout"`
	ResolveTimeout         time.Duration `yaml:"resolve_timeout"`
	MaxConcurrentDecisions int           `yaml:"max_concurrent_decisions"`
	LogDir                 string        `yaml:"log_dir"`
	LogLevel               string        `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Model:                  "gemini-2.5-flash",
		TickMinutes:            10,
		StartTime:              time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC),
		MemoryCapacity:         20,
		DecisionTimeout:        30 * time.Second,
		ResolveTimeout:         45 * time.Second,
		MaxConcurrentDecisions: 4,
		LogDir:                 ".runs",
		LogLevel:               "info",
	}
}

// LoadConfig loads the configuration from environment variables, reading the
// YAML file named by AGENTIA_CONFIG first when it is set.
func LoadConfig() (*Config, error) {
	return Load(os.Getenv(EnvConfig))
}

// Load reads a YAML config file over the defaults and applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, oops.Wrapf(err, "read config %s", path)
		}
		dec := yaml.NewDecoder(strings.NewReader(string(data)))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, oops.Wrapf(err, "parse config %s", path)
		}
	}

	cfg.GeminiAPIKey = os.Getenv(EnvAPIKey)
	if m := os.Getenv(EnvModel); m != "" {
		cfg.Model = m
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.TickMinutes <= 0 {
		return fmt.Errorf("tick_minutes must be positive, got %d", c.TickMinutes)
	}
	if c.MemoryCapacity <= 0 {
		return fmt.Errorf("memory_capacity must be positive, got %d", c.MemoryCapacity)
	}
	if c.DecisionTimeout <= 0 {
		return fmt.Errorf("decision_timeout must be positive, got %s", c.DecisionTimeout)
	}
	if c.ResolveTimeout <= 0 {
		return fmt.Errorf("resolve_timeout must be positive, got %s", c.ResolveTimeout)
	}
	if c.MaxConcurrentDecisions <= 0 {
		return fmt.Errorf("max_concurrent_decisions must be positive, got %d", c.MaxConcurrentDecisions)
	}
	if c.LogDir == "" {
		return fmt.Errorf("log_dir is required")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// RequireAPIKey fails when the Gemini key is missing. Only runs that talk to
// the model need it.
func (c *Config) RequireAPIKey() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("%s environment variable is not set", EnvAPIKey)
	}
	return nil
}

// TickDuration is the simulated time one tick covers.
func (c *Config) TickDuration() time.Duration {
	return time.Duration(c.TickMinutes) * time.Minute
}

// Level parses log_level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q (must be debug, info, warn or error)", c.LogLevel)
	}
	return l, nil
}
