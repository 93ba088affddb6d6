// Package config loads the proxy's configuration from environment
// variables and an optional YAML file, in that order, following the
// layered style of the teacher's internal/config.Load(): env vars read
// first with strings.TrimSpace, an optional YAML file layered on top,
// sane defaults applied last. CLI flag overrides are applied by the
// caller (cmd/anyproxyai/main.go) directly onto the loaded Config.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// RateLimit mirrors spec.md's rate-limiter triple.
type RateLimit struct {
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
	MinInterval time.Duration `yaml:"min_interval"`
}

// Config is every external knob spec.md §6 names.
type Config struct {
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
	APIKey string `yaml:"api_key"`

	RefreshToken string `yaml:"refresh_token"`
	ProjectID    string `yaml:"project_id"`

	RateLimit RateLimit `yaml:"rate_limit"`

	EnableThinking bool `yaml:"enable_thinking"`
	ThinkingBudget int  `yaml:"thinking_budget"`

	Debug bool `yaml:"debug"`

	LogPath string `yaml:"log_path"`
}

func defaults() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		EnableThinking: true,
		ThinkingBudget: 10000,
		Debug:          true,
		RateLimit: RateLimit{
			MaxRequests: 10,
			Window:      60 * time.Second,
			MinInterval: 2 * time.Second,
		},
	}
}

// Load reads configuration from the environment (optionally from a local
// .env file), then layers an optional YAML file named by CONFIG_FILE or
// "config.yaml" in the working directory if present, then applies defaults
// for anything still unset.
func Load() (Config, error) {
	_ = godotenv.Overload()

	cfg := defaults()

	if v := strings.TrimSpace(os.Getenv("HOST")); v != "" {
		cfg.Host = v
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("API_KEY")); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("REFRESH_TOKEN")); v != "" {
		cfg.RefreshToken = v
	}
	if v := strings.TrimSpace(os.Getenv("PROJECT_ID")); v != "" {
		cfg.ProjectID = v
	}
	if v := strings.TrimSpace(os.Getenv("MAX_REQUESTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.MaxRequests = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("RATE_WINDOW")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RateLimit.Window = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("MIN_INTERVAL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RateLimit.MinInterval = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENABLE_THINKING")); v != "" {
		cfg.EnableThinking = strings.EqualFold(v, "true") || v == "1"
	}
	if v := strings.TrimSpace(os.Getenv("THINKING_BUDGET")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ThinkingBudget = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("DEBUG")); v != "" {
		cfg.Debug = strings.EqualFold(v, "true") || v == "1"
	}
	if v := strings.TrimSpace(os.Getenv("LOG_PATH")); v != "" {
		cfg.LogPath = v
	}

	file := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	if file == "" {
		file = "config.yaml"
	}
	if data, err := os.ReadFile(file); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parsing %s: %w", file, err)
		}
	}

	return cfg, nil
}

// Validate enforces the one fatal startup requirement: a refresh token must
// be configured.
func (c Config) Validate() error {
	if strings.TrimSpace(c.RefreshToken) == "" {
		return fmt.Errorf("config: refresh_token is required")
	}
	return nil
}
