package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr        = ":8080"
	DefaultMode        = "release"
	DefaultAPIBase     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-mini"
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.7
	DefaultAPIKeyEnv   = "OPENAI_API_KEY"
	DefaultLogLevel    = "info"
)

// Config is the process-wide configuration. It is loaded once at startup
// and never mutated afterwards.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Prompts  PromptsConfig  `yaml:"prompts"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	Mode    string `yaml:"mode"`
	Metrics bool   `yaml:"metrics"`
}

// UpstreamConfig describes the chat-completion provider
type UpstreamConfig struct {
	APIBase     string        `yaml:"api_base"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	APIKeyEnv   string        `yaml:"api_key_env"`

	// APIKey is only ever read from the environment.
	APIKey string `yaml:"-"`
}

// PromptsConfig contains the prompts sent upstream
type PromptsConfig struct {
	System string `yaml:"system"`
}

// LogConfig contains logging options
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: DefaultAddr,
			Mode: DefaultMode,
		},
		Upstream: UpstreamConfig{
			APIBase:     DefaultAPIBase,
			Model:       DefaultModel,
			MaxTokens:   DefaultMaxTokens,
			Temperature: DefaultTemperature,
			APIKeyEnv:   DefaultAPIKeyEnv,
		},
		Prompts: PromptsConfig{
			System: DefaultSystemPrompt,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// LoadConfig loads configuration from an optional YAML file and then applies
// environment overrides. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.Getenv)
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv("PORT")); v != "" {
		c.Server.Addr = ":" + v
	}
	if v := strings.TrimSpace(getenv("GIN_MODE")); v != "" {
		c.Server.Mode = v
	}
	if v := strings.TrimSpace(getenv("LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(getenv("OPENAI_API_BASE")); v != "" {
		c.Upstream.APIBase = v
	}

	keyEnv := c.Upstream.APIKeyEnv
	if keyEnv == "" {
		keyEnv = DefaultAPIKeyEnv
	}
	c.Upstream.APIKey = strings.TrimSpace(getenv(keyEnv))
}

// fillDefaults restores defaults for keys a file set to their zero value
func (c *Config) fillDefaults() {
	d := Default()
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.Mode == "" {
		c.Server.Mode = d.Server.Mode
	}
	if c.Upstream.APIBase == "" {
		c.Upstream.APIBase = d.Upstream.APIBase
	}
	if c.Upstream.Model == "" {
		c.Upstream.Model = d.Upstream.Model
	}
	if c.Upstream.MaxTokens == 0 {
		c.Upstream.MaxTokens = d.Upstream.MaxTokens
	}
	if c.Upstream.APIKeyEnv == "" {
		c.Upstream.APIKeyEnv = d.Upstream.APIKeyEnv
	}
	if strings.TrimSpace(c.Prompts.System) == "" {
		c.Prompts.System = d.Prompts.System
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// Validate checks values that would otherwise fail on the first request.
// A missing API key is deliberately not an error here; it is reported per
// request.
func (c *Config) Validate() error {
	if c.Upstream.MaxTokens < 0 {
		return fmt.Errorf("upstream.max_tokens must be positive, got %d", c.Upstream.MaxTokens)
	}
	if c.Upstream.Temperature < 0 || c.Upstream.Temperature > 2 {
		return fmt.Errorf("upstream.temperature must be within [0, 2], got %v", c.Upstream.Temperature)
	}
	if c.Upstream.Timeout < 0 {
		return fmt.Errorf("upstream.timeout must not be negative, got %s", c.Upstream.Timeout)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}
	return nil
}

// HasAPIKey reports whether the upstream credential was found
func (c *Config) HasAPIKey() bool {
	return c.Upstream.APIKey != ""
}
