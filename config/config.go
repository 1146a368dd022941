package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultAPIBase points at a local inference backend.
const DefaultAPIBase = "http://127.0.0.1:8010"

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	LogRequests  bool // Log analyze/mitigate request content
	LogResponses bool // Log backend response summaries
	LogVerbose   bool // Log full rendered views
}

// DatabaseConfig holds interaction-log database configuration
type DatabaseConfig struct {
	Enabled      bool   // Whether to use database storage for the interaction log
	Host         string // Database host
	Port         int    // Database port
	Database     string // Database name
	Username     string // Database username
	Password     string // Database password
	SSLMode      string // SSL mode (disable, require, etc.)
	MaxOpenConns int    // Maximum open connections
	MaxIdleConns int    // Maximum idle connections
	MaxLifetime  int    // Connection max lifetime in seconds
}

// VoiceConfig holds speech synthesis configuration
type VoiceConfig struct {
	Enabled  bool   // Whether the voice endpoint is served
	Endpoint string // TTS endpoint base URL
	Language string // Spoken language code
}

// RateLimitConfig holds API rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// Config holds all configuration for the dashboard service
type Config struct {
	DashboardPort string // Listen port in ":PORT" form
	APIBase       string // Inference backend base URL
	UIPath        string // Static UI directory (dev mode, when not embedded)

	HealthTimeoutSeconds   int // Budget for GET /health
	InferTimeoutSeconds    int // Budget for POST /v1/infer (backend may cold-start)
	MitigateTimeoutSeconds int // Budget for POST /v1/mitigate

	SentryDSN string

	Voice     VoiceConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DashboardPort:          ":8501",
		APIBase:                DefaultAPIBase,
		UIPath:                 "./ui/dist",
		HealthTimeoutSeconds:   5,
		InferTimeoutSeconds:    120,
		MitigateTimeoutSeconds: 120,
		Voice: VoiceConfig{
			Enabled:  true,
			Endpoint: "https://translate.google.com",
			Language: "en",
		},
		Database: DatabaseConfig{
			Enabled:      false,
			Host:         "localhost",
			Port:         5432,
			Database:     "jenai",
			Username:     "postgres",
			Password:     "",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 25,
			MaxLifetime:  300,
		},
		Logging: LoggingConfig{
			LogRequests:  true,
			LogResponses: true,
			LogVerbose:   false,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 10,
			Burst:             20,
		},
	}
}

// Validate checks the configuration for values that would prevent startup.
func (c *Config) Validate() error {
	if err := validatePort(c.DashboardPort, "DashboardPort"); err != nil {
		return err
	}
	if err := validateBaseURL(c.APIBase, "APIBase"); err != nil {
		return err
	}
	if c.Voice.Enabled {
		if err := validateBaseURL(c.Voice.Endpoint, "Voice.Endpoint"); err != nil {
			return err
		}
	}
	if c.InferTimeoutSeconds <= 0 || c.MitigateTimeoutSeconds <= 0 || c.HealthTimeoutSeconds <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

// validatePort checks that port is in ":PORT" form with a numeric port.
func validatePort(port, fieldName string) error {
	if port == "" {
		return fmt.Errorf("%s: port cannot be empty", fieldName)
	}
	if !strings.HasPrefix(port, ":") {
		return fmt.Errorf("%s: port must be in format ':PORT' where PORT is numeric (current value: %s)", fieldName, port)
	}
	n, err := strconv.Atoi(port[1:])
	if err != nil {
		return fmt.Errorf("%s: port must be in format ':PORT' where PORT is numeric (current value: %s)", fieldName, port)
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("%s: port must be between 1 and 65535 (current value: %d)", fieldName, n)
	}
	return nil
}

// validateBaseURL checks that raw parses as an absolute http(s) URL.
func validateBaseURL(raw, fieldName string) error {
	if raw == "" {
		return fmt.Errorf("%s: URL cannot be empty", fieldName)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid URL %q: %v", fieldName, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: URL must use http or https (current value: %s)", fieldName, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: URL must include a host (current value: %s)", fieldName, raw)
	}
	return nil
}
