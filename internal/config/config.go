// Package config loads runtime configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"sentinel/internal/observability"
)

// Config holds every runtime-tunable setting for the orchestrator process.
type Config struct {
	Host string
	Port int

	OpenAIAPIKey    string
	AnthropicAPIKey string
	GeminiAPIKey    string
	BedrockRegion   string
	BedrockProfile  string

	QdrantURL    string
	QdrantAPIKey string

	SummaryStorePath string

	HealthCheckInterval time.Duration
	ZombieTimeout       time.Duration

	CORSAllowOrigin string
	MetricsEnabled  bool
	MetricsPort     int
}

// Load reads configuration from the process environment, applying the
// defaults written in the struct literal below. It never fails: a malformed
// numeric or duration value is logged and the default is kept, matching
// the tolerant env-parsing style used throughout this codebase.
func Load() *Config {
	log := observability.Logger

	cfg := &Config{
		Host: getEnv("SENTINEL_HOST", "0.0.0.0"),
		Port: getEnvInt(log, "SENTINEL_PORT", 3000),

		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		BedrockRegion:   getEnv("AWS_REGION", "us-east-1"),
		BedrockProfile:  os.Getenv("AWS_PROFILE"),

		QdrantURL:    getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey: os.Getenv("QDRANT_API_KEY"),

		SummaryStorePath: getEnv("SENTINEL_SUMMARY_PATH", "./data/summaries.db"),

		HealthCheckInterval: getEnvDuration(log, "SENTINEL_HEALTH_CHECK_INTERVAL", 10*time.Second),
		ZombieTimeout:       getEnvDuration(log, "SENTINEL_ZOMBIE_TIMEOUT", 60*time.Second),

		CORSAllowOrigin: getEnv("SENTINEL_CORS_ALLOW_ORIGIN", "*"),
		MetricsEnabled:  getEnvBool(getEnv("SENTINEL_METRICS_ENABLED", "true")),
		MetricsPort:     getEnvInt(log, "SENTINEL_METRICS_PORT", 9090),
	}

	return cfg
}

// Addr returns the "host:port" listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return true
	}
	return b
}

func getEnvInt(log zerolog.Logger, key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("env", key).Str("value", v).Msg("invalid integer, using default")
		return fallback
	}
	return n
}

func getEnvDuration(log zerolog.Logger, key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("env", key).Str("value", v).Msg("invalid duration, using default")
		return fallback
	}
	return d
}
