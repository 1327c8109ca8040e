// Package config provides application configuration.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	GRPCPort       string // empty disables the gRPC health probe
	FrontendURL    string
	AllowedOrigins []string
	StoreDriver    string
	DBPath         string
	OpenAI         OpenAIConfig
	Prompting      PromptingConfig
	RateLimit      RateLimitConfig
	Timeout        TimeoutConfig
}

// OpenAIConfig describes the hosted completion deployment.
type OpenAIConfig struct {
	Endpoint   string
	Deployment string
	APIVersion string
	APIKey     string
	Timeout    time.Duration
	// StaticText, when set and no endpoint is configured, is served as the
	// model completion for every prompt request.
	StaticText string
}

// Configured reports whether enough is set to attempt a completion call.
func (c OpenAIConfig) Configured() bool {
	return c.Endpoint != "" && c.APIKey != ""
}

// PromptingConfig holds the stage selection policy constants.
type PromptingConfig struct {
	CompletionThreshold float64
	GenreThreshold      int
	TitleThreshold      int
	RefinementModulus   int
}

// RateLimitConfig controls per-user throttling of prompt endpoints.
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// TimeoutConfig groups operation timeouts.
type TimeoutConfig struct {
	HealthCheck time.Duration
	Shutdown    time.Duration
}

var defaultOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8000"),
		GRPCPort:       getEnv("GRPC_PORT", ""),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		AllowedOrigins: getEnvList("CORS_ORIGINS", defaultOrigins),
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", StoreSQLite)),
		DBPath:         getEnv("DB_PATH", "./data/storyscribe.db"),
		OpenAI: OpenAIConfig{
			Endpoint:   getEnv("OPENAI_ENDPOINT", ""),
			Deployment: getEnv("OPENAI_DEPLOYMENT", "gpt-4o-mini"),
			APIVersion: getEnv("OPENAI_API_VERSION", "2024-08-01-preview"),
			APIKey:     getEnv("OPENAI_API_KEY", ""),
			Timeout:    getEnvDuration("OPENAI_TIMEOUT", 20*time.Second),
			StaticText: getEnv("OPENAI_STATIC_TEXT", ""),
		},
		Prompting: PromptingConfig{
			CompletionThreshold: getEnvFloat("PROMPT_COMPLETION_THRESHOLD", 0.8),
			GenreThreshold:      getEnvInt("PROMPT_GENRE_THRESHOLD", 10),
			TitleThreshold:      getEnvInt("PROMPT_TITLE_THRESHOLD", 15),
			RefinementModulus:   getEnvInt("PROMPT_REFINEMENT_MODULUS", 3),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: getEnvInt("PROMPT_RATE_LIMIT", 30),
			WindowDuration:    getEnvDuration("PROMPT_RATE_WINDOW", time.Minute),
		},
		Timeout: TimeoutConfig{
			HealthCheck: getEnvDuration("HEALTH_CHECK_TIMEOUT", 5*time.Second),
			Shutdown:    10 * time.Second,
		},
	}

	if cfg.FrontendURL != "" && !contains(cfg.AllowedOrigins, cfg.FrontendURL) {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, cfg.FrontendURL)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.StoreDriver {
	case StoreSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreSQLite, StoreMemory, c.StoreDriver)
	}
	if c.OpenAI.Deployment == "" {
		return fmt.Errorf("OPENAI_DEPLOYMENT cannot be empty")
	}
	if c.OpenAI.Timeout <= 0 {
		return fmt.Errorf("OPENAI_TIMEOUT must be > 0")
	}
	p := c.Prompting
	if math.IsNaN(p.CompletionThreshold) || p.CompletionThreshold < 0 || p.CompletionThreshold > 1 {
		return fmt.Errorf("PROMPT_COMPLETION_THRESHOLD must be within [0, 1]")
	}
	if p.GenreThreshold <= 0 || p.TitleThreshold <= 0 {
		return fmt.Errorf("PROMPT_GENRE_THRESHOLD and PROMPT_TITLE_THRESHOLD must be > 0")
	}
	if p.RefinementModulus <= 0 {
		return fmt.Errorf("PROMPT_REFINEMENT_MODULUS must be > 0")
	}
	if c.RateLimit.RequestsPerWindow <= 0 || c.RateLimit.WindowDuration <= 0 {
		return fmt.Errorf("PROMPT_RATE_LIMIT and PROMPT_RATE_WINDOW must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

// IsContainer returns true if running inside a Docker container.
func IsContainer() bool {
	if getEnvBool("CONTAINER", false) {
		return true
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}
