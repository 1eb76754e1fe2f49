package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.HealthCheckInterval)
	assert.Equal(t, 60*time.Second, cfg.ZombieTimeout)
	assert.Equal(t, "*", cfg.CORSAllowOrigin)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SENTINEL_HOST", "127.0.0.1")
	t.Setenv("SENTINEL_PORT", "8080")
	t.Setenv("SENTINEL_ZOMBIE_TIMEOUT", "2m")
	t.Setenv("SENTINEL_METRICS_ENABLED", "false")

	cfg := Load()

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 2*time.Minute, cfg.ZombieTimeout)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
}

func TestLoad_MalformedFallsBackToDefault(t *testing.T) {
	t.Setenv("SENTINEL_PORT", "not-a-number")
	t.Setenv("SENTINEL_HEALTH_CHECK_INTERVAL", "not-a-duration")

	cfg := Load()

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.HealthCheckInterval)
}
