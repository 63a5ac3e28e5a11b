package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	PredictionAPIURL     string
	PredictionAPITimeout time.Duration

	RequestTimeout time.Duration

	// RiskThreshold is the delay probability at or above which a result is
	// labeled high risk. The upstream model documents 0.5 as the nominal cutoff.
	RiskThreshold float64

	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	PredictionAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"prediction_api"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Render struct {
		RiskThreshold *float64 `yaml:"risk_threshold"`
	} `yaml:"render"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev), then
// applies env overrides (PORT, PREDICTION_API_URL, PREDICTION_API_TIMEOUT,
// RISK_THRESHOLD). A missing config file is not an error; this is a local
// tool and defaults are enough to run against an API on localhost:5000.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}

	var fc fileConfig
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg := &Config{}

	cfg.ServerPort = os.Getenv("PORT")
	if cfg.ServerPort == "" {
		cfg.ServerPort = fc.Server.Port
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "3000"
	}

	cfg.PredictionAPIURL = os.Getenv("PREDICTION_API_URL")
	if cfg.PredictionAPIURL == "" {
		cfg.PredictionAPIURL = fc.PredictionAPI.URL
	}
	if cfg.PredictionAPIURL == "" {
		cfg.PredictionAPIURL = "http://localhost:5000"
	}

	cfg.PredictionAPITimeout = parseDuration(os.Getenv("PREDICTION_API_TIMEOUT"), 0)
	if cfg.PredictionAPITimeout <= 0 {
		cfg.PredictionAPITimeout = parseDuration(fc.PredictionAPI.Timeout, 10*time.Second)
	}

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 15*time.Second)

	cfg.RiskThreshold = 0.5
	if fc.Render.RiskThreshold != nil {
		cfg.RiskThreshold = *fc.Render.RiskThreshold
	}
	if raw := strings.TrimSpace(os.Getenv("RISK_THRESHOLD")); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			cfg.RiskThreshold = v
		}
	}

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 50
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 100
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDuration parses a duration string and returns defaultVal if parsing
// fails or the result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validate performs post-load validation. The page request timeout must
// exceed the API timeout so the client, not the middleware, decides timeouts;
// it is auto-adjusted when configured lower.
func validate(cfg *Config) error {
	if cfg.PredictionAPITimeout <= 0 {
		return fmt.Errorf("prediction_api.timeout must be positive")
	}
	if cfg.RiskThreshold <= 0 || cfg.RiskThreshold > 1 {
		return fmt.Errorf("render.risk_threshold must be in (0,1], got %v", cfg.RiskThreshold)
	}
	if cfg.RequestTimeout <= cfg.PredictionAPITimeout {
		cfg.RequestTimeout = cfg.PredictionAPITimeout + time.Second
	}
	return nil
}
