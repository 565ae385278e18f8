package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Error reports a configuration field that could not be used.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Config holds the run defaults for the CLI and the Slack bot. Values come
// from Defaults, then an optional YAML file, then the environment.
type Config struct {
	Pricing struct {
		Steps      int   `yaml:"steps"`
		Paths      int   `yaml:"paths"`
		Seed       int64 `yaml:"seed"`
		Workers    int   `yaml:"workers"`
		Antithetic bool  `yaml:"antithetic"`
	} `yaml:"pricing"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`

	Slack struct {
		AppToken string `yaml:"app_token"`
		BotToken string `yaml:"bot_token"`
	} `yaml:"slack"`
}

// Defaults mirrors the interactive dashboard: 500 steps, 100k paths, seed 42.
func Defaults() *Config {
	var cfg Config
	cfg.Pricing.Steps = 500
	cfg.Pricing.Paths = 100000
	cfg.Pricing.Seed = 42
	cfg.Pricing.Workers = 1
	cfg.Logging.Level = "info"
	return &cfg
}

// Load builds a Config. Either path may be empty; a missing env file is not an error.
func Load(yamlPath, envFile string) (*Config, error) {
	cfg := Defaults()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", yamlPath, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Pricing.Steps <= 0 {
		return &Error{Field: "pricing.steps", Reason: "must be positive"}
	}
	if c.Pricing.Paths <= 0 {
		return &Error{Field: "pricing.paths", Reason: "must be positive"}
	}
	if c.Pricing.Workers < 0 {
		return &Error{Field: "pricing.workers", Reason: "must not be negative"}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &Error{Field: "logging.level", Reason: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	return nil
}

// SlackEnabled reports whether both socket-mode tokens are present.
func (c *Config) SlackEnabled() bool {
	return c.Slack.AppToken != "" && c.Slack.BotToken != ""
}

func overrideWithEnv(cfg *Config) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"OPTPRICE_STEPS", &cfg.Pricing.Steps},
		{"OPTPRICE_PATHS", &cfg.Pricing.Paths},
		{"OPTPRICE_WORKERS", &cfg.Pricing.Workers},
	}
	for _, v := range ints {
		raw := os.Getenv(v.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return &Error{Field: v.key, Reason: err.Error()}
		}
		*v.dst = n
	}

	if raw := os.Getenv("OPTPRICE_SEED"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return &Error{Field: "OPTPRICE_SEED", Reason: err.Error()}
		}
		cfg.Pricing.Seed = seed
	}
	if raw := os.Getenv("OPTPRICE_ANTITHETIC"); raw != "" {
		on, err := strconv.ParseBool(raw)
		if err != nil {
			return &Error{Field: "OPTPRICE_ANTITHETIC", Reason: err.Error()}
		}
		cfg.Pricing.Antithetic = on
	}

	if level := os.Getenv("OPTPRICE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if file := os.Getenv("OPTPRICE_LOG_FILE"); file != "" {
		cfg.Logging.File = file
	}
	if token := os.Getenv("SLACK_APP_TOKEN"); token != "" {
		cfg.Slack.AppToken = token
	}
	if token := os.Getenv("SLACK_BOT_TOKEN"); token != "" {
		cfg.Slack.BotToken = token
	}
	return nil
}
