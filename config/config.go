// Package config resolves the tracing configuration once, at the process
// boundary. Core packages receive the struct and never read the
// environment themselves.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment variables, all optional:
//
//	RUNTRAIL_ENDPOINT       collector base URL
//	RUNTRAIL_API_KEY        x-api-key header value
//	RUNTRAIL_TENANT_ID      tenant id, skips the tenant listing when set
//	RUNTRAIL_SESSION        session (project) name
//	RUNTRAIL_SESSION_EXTRA  JSON object attached to the session
//	RUNTRAIL_CONCURRENCY    max outstanding collector calls
//	RUNTRAIL_MAX_RETRIES    retry budget per collector call
//	RUNTRAIL_LOG_LEVEL      debug, info, warn, error
const envPrefix = "RUNTRAIL"

// Config is the construction-time surface of the tracer.
type Config struct {
	Endpoint     string
	APIKey       string
	TenantID     string
	SessionName  string
	SessionExtra map[string]interface{}
	Concurrency  int
	MaxRetries   int
	LogLevel     string
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Endpoint:    "http://localhost:1984",
		SessionName: "default",
		Concurrency: 10,
		MaxRetries:  4,
		LogLevel:    "info",
	}
}

// Load resolves configuration from the environment, loading a .env file
// first when one exists in the working directory.
func Load() (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("endpoint", defaults.Endpoint)
	v.SetDefault("api_key", "")
	v.SetDefault("tenant_id", "")
	v.SetDefault("session", defaults.SessionName)
	v.SetDefault("session_extra", "")
	v.SetDefault("concurrency", defaults.Concurrency)
	v.SetDefault("max_retries", defaults.MaxRetries)
	v.SetDefault("log_level", defaults.LogLevel)

	cfg := Config{
		Endpoint:    v.GetString("endpoint"),
		APIKey:      v.GetString("api_key"),
		TenantID:    v.GetString("tenant_id"),
		SessionName: v.GetString("session"),
		Concurrency: v.GetInt("concurrency"),
		MaxRetries:  v.GetInt("max_retries"),
		LogLevel:    v.GetString("log_level"),
	}

	if raw := v.GetString("session_extra"); raw != "" {
		extra := make(map[string]interface{})
		if err := json.Unmarshal([]byte(raw), &extra); err != nil {
			return Config{}, fmt.Errorf("parse %s_SESSION_EXTRA: %w", envPrefix, err)
		}
		cfg.SessionExtra = extra
	}

	return cfg, nil
}
