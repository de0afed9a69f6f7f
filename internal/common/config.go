// Package common provides shared utilities for Fundwatch
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Fundwatch
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"`
	Storage     StorageConfig  `toml:"storage"`
	Ingest      IngestConfig   `toml:"ingest"`
	Analysis    AnalysisConfig `toml:"analysis"`
	Clients     ClientsConfig  `toml:"clients"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds storage path configuration.
type StorageConfig struct {
	Path        string `toml:"path"`         // BadgerDB directory
	LandingPath string `toml:"landing_path"` // raw feed archive directory
}

// IngestConfig holds feed ingestion configuration.
type IngestConfig struct {
	Schedule            string  `toml:"schedule"`             // cron expression for the daily batch
	SampleSize          int     `toml:"sample_size"`          // lines sampled by the feed validator
	ConformityThreshold float64 `toml:"conformity_threshold"` // minimum valid-line fraction
	ArchiveRetainDays   int     `toml:"archive_retain_days"`  // landing-zone snapshots kept
}

// AnalysisConfig holds scorecard computation parameters.
type AnalysisConfig struct {
	RiskFreeRate   float64 `toml:"risk_free_rate"`  // annual risk-free rate for Sharpe
	MatchThreshold int     `toml:"match_threshold"` // fuzzy fund-name match cutoff (0-100)
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	AMFI   AMFIConfig   `toml:"amfi"`
	Gemini GeminiConfig `toml:"gemini"`
}

// AMFIConfig holds AMFI NAV feed configuration
type AMFIConfig struct {
	FeedURL   string `toml:"feed_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *AMFIConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Path:        "data/db",
			LandingPath: "data/landing",
		},
		Ingest: IngestConfig{
			Schedule:            "30 21 * * *",
			SampleSize:          100,
			ConformityThreshold: 0.90,
			ArchiveRetainDays:   30,
		},
		Analysis: AnalysisConfig{
			RiskFreeRate:   0.07,
			MatchThreshold: 75,
		},
		Clients: ClientsConfig{
			AMFI: AMFIConfig{
				FeedURL:   "https://www.amfiindia.com/spages/NAVAll.txt",
				RateLimit: 2,
				Timeout:   "60s",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Outputs:    []string{"console", "file"},
			FilePath:   "./logs/fundwatch.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FUNDWATCH_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("FUNDWATCH_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("FUNDWATCH_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("FUNDWATCH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("FUNDWATCH_DATA_PATH"); path != "" {
		config.Storage.Path = filepath.Join(path, "db")
		config.Storage.LandingPath = filepath.Join(path, "landing")
	}

	if url := os.Getenv("FUNDWATCH_FEED_URL"); url != "" {
		config.Clients.AMFI.FeedURL = url
	}

	if schedule := os.Getenv("FUNDWATCH_INGEST_SCHEDULE"); schedule != "" {
		config.Ingest.Schedule = schedule
	}

	if key := os.Getenv("FUNDWATCH_GEMINI_API_KEY"); key != "" {
		config.Clients.Gemini.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && config.Clients.Gemini.APIKey == "" {
		config.Clients.Gemini.APIKey = key
	}

	if rate := os.Getenv("FUNDWATCH_RISK_FREE_RATE"); rate != "" {
		if r, err := strconv.ParseFloat(rate, 64); err == nil {
			config.Analysis.RiskFreeRate = r
		}
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
