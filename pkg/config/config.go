// Package config loads proxy configuration from defaults, an optional
// YAML or JSON file, and environment variable overrides, in that order.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from strings like "30s" in
// YAML, JSON and environment variables.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler, used by both the env
// parser and the YAML decoder.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText renders the duration in time.Duration notation.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalYAML accepts the same string form from YAML files.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(raw))
}

// MarshalYAML renders the duration in time.Duration notation.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Defaults applied before any file or environment override.
const (
	DefaultProxyPort   = 3000
	DefaultAdminPort   = 3001
	DefaultLogCapacity = 1000
	DefaultTimeout     = 30 * time.Second
)

// Config is the full runtime configuration.
type Config struct {
	// ProxyPort is where intercepted traffic arrives.
	ProxyPort int `json:"proxyPort" yaml:"proxyPort" env:"FAKEGATE_PROXY_PORT"`

	// AdminPort serves the rule and log management API.
	AdminPort int `json:"adminPort" yaml:"adminPort" env:"FAKEGATE_ADMIN_PORT"`

	// RulesFile persists rules across restarts; empty keeps them in memory
	// only.
	RulesFile string `json:"rulesFile" yaml:"rulesFile" env:"FAKEGATE_RULES_FILE"`

	// LogCapacity bounds the request history.
	LogCapacity int `json:"logCapacity" yaml:"logCapacity" env:"FAKEGATE_LOG_CAPACITY"`

	// ExcludePatterns are substrings; matching transactions are never
	// recorded or streamed.
	ExcludePatterns []string `json:"excludePatterns" yaml:"excludePatterns" env:"FAKEGATE_EXCLUDE_PATTERNS" envSeparator:","`

	// UpstreamTimeout bounds each forwarded exchange.
	UpstreamTimeout Duration `json:"upstreamTimeout" yaml:"upstreamTimeout" env:"FAKEGATE_UPSTREAM_TIMEOUT"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `json:"logLevel" yaml:"logLevel" env:"FAKEGATE_LOG_LEVEL"`

	// LogFormat is text or json.
	LogFormat string `json:"logFormat" yaml:"logFormat" env:"FAKEGATE_LOG_FORMAT"`
}

// Default returns the configuration used when nothing else is specified.
func Default() *Config {
	return &Config{
		ProxyPort:       DefaultProxyPort,
		AdminPort:       DefaultAdminPort,
		LogCapacity:     DefaultLogCapacity,
		UpstreamTimeout: Duration(DefaultTimeout),
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load builds the configuration: defaults, then the file at path when one
// is given, then environment variables. A .env file in the working
// directory is folded into the environment first.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	// Missing .env is the normal case.
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return nil
}

// Validate rejects configurations the servers cannot run with.
func (c *Config) Validate() error {
	if c.ProxyPort < 1 || c.ProxyPort > 65535 {
		return fmt.Errorf("proxy port %d out of range", c.ProxyPort)
	}
	if c.AdminPort < 1 || c.AdminPort > 65535 {
		return fmt.Errorf("admin port %d out of range", c.AdminPort)
	}
	if c.ProxyPort == c.AdminPort {
		return fmt.Errorf("proxy and admin ports are both %d", c.ProxyPort)
	}
	if c.LogCapacity < 1 {
		return fmt.Errorf("log capacity %d must be positive", c.LogCapacity)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream timeout %s must be positive", c.UpstreamTimeout.Std())
	}
	return nil
}
