package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Search     SearchConfig     `yaml:"search"`
	Inference  InferenceConfig  `yaml:"inference"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Cleanup    CleanupConfig    `yaml:"cleanup"`
	WebContext WebContextConfig `yaml:"web_context"`
	Logging    LoggingConfig    `yaml:"logging"`
	Timezone   string           `yaml:"timezone"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
}

// InferenceConfig contains inference gateway settings
type InferenceConfig struct {
	APIKey           string `yaml:"api_key"`
	Model            string `yaml:"model"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	FailureThreshold int    `yaml:"failure_threshold"`
	ResetMinutes     int    `yaml:"reset_minutes"`
	UseWebContext    bool   `yaml:"use_web_context"`
}

// PipelineConfig contains pipeline-specific settings
type PipelineConfig struct {
	BaselineYearBuilt    int    `yaml:"baseline_year_built"`
	SweepEnabled         bool   `yaml:"sweep_enabled"`
	SweepTime            string `yaml:"sweep_time"` // HH:MM
	OrphanRetentionHours int    `yaml:"orphan_retention_hours"`
}

// RateLimitConfig contains rate limiting settings for inference-heavy endpoints
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
	RequestsPerDay    int  `yaml:"requests_per_day"`
}

// CleanupConfig contains orphan sweep settings
type CleanupConfig struct {
	MaxDeletionCount int  `yaml:"max_deletion_count"`
	DryRun           bool `yaml:"dry_run"`
}

// WebContextConfig contains comparable-listing fetcher settings
type WebContextConfig struct {
	Sources        []string `yaml:"sources"`
	Selector       string   `yaml:"selector"`
	MaxSnippets    int      `yaml:"max_snippets"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	UserAgent      string   `yaml:"user_agent"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `yaml:"level"`
	LogRequests bool   `yaml:"log_requests"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Inference: InferenceConfig{
			Model:            "gemini-1.5-pro",
			TimeoutSeconds:   60,
			FailureThreshold: 5,
			ResetMinutes:     10,
			UseWebContext:    false,
		},
		Pipeline: PipelineConfig{
			BaselineYearBuilt:    2000,
			SweepEnabled:         false,
			SweepTime:            "03:00",
			OrphanRetentionHours: 24,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 10,
			RequestsPerHour:   120,
			RequestsPerDay:    1000,
		},
		Cleanup: CleanupConfig{
			MaxDeletionCount: 1000,
			DryRun:           false,
		},
		WebContext: WebContextConfig{
			Selector:       "article, .listing, .property-card",
			MaxSnippets:    5,
			TimeoutSeconds: 15,
			UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		},
		Logging: LoggingConfig{
			Level:       "info",
			LogRequests: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	// Read file
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// GetTimeout returns the inference timeout as a duration
func (c *InferenceConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetResetTimeout returns the circuit breaker reset timeout as a duration
func (c *InferenceConfig) GetResetTimeout() time.Duration {
	return time.Duration(c.ResetMinutes) * time.Minute
}

// GetOrphanRetention returns the orphan retention window as a duration
func (c *PipelineConfig) GetOrphanRetention() time.Duration {
	return time.Duration(c.OrphanRetentionHours) * time.Hour
}

// GetTimeout returns the web-context fetch timeout as a duration
func (c *WebContextConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
