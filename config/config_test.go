package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "@every 30m", cfg.Tasks.VideoGenerationSpec)
	assert.Equal(t, "@every 5m", cfg.Tasks.EngagementSpec)
	assert.Equal(t, "@every 1h", cfg.Tasks.StatsSpec)
	assert.Equal(t, "0 0 2 * * *", cfg.Tasks.CleanupSpec)
	assert.False(t, cfg.Tasks.FailOnExhausted)
	assert.Equal(t, 2*time.Second, cfg.Tasks.BootstrapDelay)
	assert.Equal(t, 30, cfg.Content.CleanupDaysOld)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TASKS_ENGAGEMENT_ENABLED", "false")
	t.Setenv("TASKS_FAIL_ON_EXHAUSTED", "true")
	t.Setenv("WORKER_POLL_TIMEOUT", "500ms")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Tasks.EngagementEnabled)
	assert.True(t, cfg.Tasks.FailOnExhausted)
	assert.Equal(t, 500*time.Millisecond, cfg.Worker.PollTimeout)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.Origins())
}

func TestLoadRejectsZeroConcurrency(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: "5432", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", c.DSN())

	c.URL = "postgres://override"
	assert.Equal(t, "postgres://override", c.DSN())
}
