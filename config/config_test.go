package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:1984", cfg.Endpoint)
	assert.Equal(t, "default", cfg.SessionName)
	assert.Equal(t, "", cfg.APIKey)
	assert.Equal(t, "", cfg.TenantID)
	assert.Equal(t, 10, cfg.Concurrency)
	assert.Equal(t, 4, cfg.MaxRetries)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Nil(t, cfg.SessionExtra)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("RUNTRAIL_ENDPOINT", "https://collector.internal:8443")
	t.Setenv("RUNTRAIL_API_KEY", "sekrit")
	t.Setenv("RUNTRAIL_TENANT_ID", "0b4f7a2e-9d3c-4e1f-8a6b-2c5d7e9f1a3b")
	t.Setenv("RUNTRAIL_SESSION", "nightly-evals")
	t.Setenv("RUNTRAIL_SESSION_EXTRA", `{"team":"platform","shard":3}`)
	t.Setenv("RUNTRAIL_CONCURRENCY", "2")
	t.Setenv("RUNTRAIL_MAX_RETRIES", "1")
	t.Setenv("RUNTRAIL_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://collector.internal:8443", cfg.Endpoint)
	assert.Equal(t, "sekrit", cfg.APIKey)
	assert.Equal(t, "0b4f7a2e-9d3c-4e1f-8a6b-2c5d7e9f1a3b", cfg.TenantID)
	assert.Equal(t, "nightly-evals", cfg.SessionName)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.Equal(t, "debug", cfg.LogLevel)

	require.NotNil(t, cfg.SessionExtra)
	assert.Equal(t, "platform", cfg.SessionExtra["team"])
	assert.Equal(t, float64(3), cfg.SessionExtra["shard"])
}

func TestLoadRejectsMalformedSessionExtra(t *testing.T) {
	t.Setenv("RUNTRAIL_SESSION_EXTRA", "{not json")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_EXTRA")
}
