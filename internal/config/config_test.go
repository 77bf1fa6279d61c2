package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"GEMINI_API_KEY", "API_KEY", "PORT", "CLIENTLENS_BACKEND", "CLIENTLENS_MODEL",
		"CLIENTLENS_BASE_URL", "GOOGLE_CLOUD_PROJECT", "GOOGLE_CLOUD_LOCATION",
		"CLIENTLENS_TEMPERATURE", "CLIENTLENS_TIMEOUT", "CLIENTLENS_MAX_RETRIES",
		"CLIENTLENS_WORKFLOW_TTL", "CLIENTLENS_STORE", "CLIENTLENS_DB_PATH", "CLIENTLENS_SEED_FILE",
		"CLIENTLENS_LOG_LEVEL", "CLIENTLENS_LOG_FORMAT", "CLIENTLENS_METRICS",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendGenAI, cfg.Backend)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.Equal(t, 30*time.Minute, cfg.WorkflowTTL)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.True(t, cfg.Metrics)
	assert.ErrorIs(t, cfg.RequireCredentials(), ErrMissingAPIKey)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", "fallback")
	t.Setenv("PORT", "9090")
	t.Setenv("CLIENTLENS_BACKEND", "gemini")
	t.Setenv("CLIENTLENS_TEMPERATURE", "0.9")
	t.Setenv("CLIENTLENS_TIMEOUT", "15s")
	t.Setenv("CLIENTLENS_MAX_RETRIES", "0")
	t.Setenv("CLIENTLENS_WORKFLOW_TTL", "0")
	t.Setenv("CLIENTLENS_STORE", "sqlite")
	t.Setenv("CLIENTLENS_METRICS", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "fallback", cfg.APIKey)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, BackendGemini, cfg.Backend)
	assert.InDelta(t, 0.9, cfg.Temperature, 1e-6)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Zero(t, cfg.WorkflowTTL)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.False(t, cfg.Metrics)
	assert.NoError(t, cfg.RequireCredentials())
}

func TestLoad_GeminiKeyWinsOverAPIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "primary")
	t.Setenv("API_KEY", "fallback")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.APIKey)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name, value string
	}{
		{"CLIENTLENS_TIMEOUT", "soon"},
		{"CLIENTLENS_TIMEOUT", "-5s"},
		{"CLIENTLENS_MAX_RETRIES", "-1"},
		{"CLIENTLENS_WORKFLOW_TTL", "-1m"},
		{"CLIENTLENS_WORKFLOW_TTL", "forever"},
		{"CLIENTLENS_TEMPERATURE", "hot"},
		{"CLIENTLENS_METRICS", "maybe"},
		{"CLIENTLENS_BACKEND", "openai"},
		{"CLIENTLENS_STORE", "postgres"},
		{"CLIENTLENS_LOG_LEVEL", "verbose"},
		{"CLIENTLENS_LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.name, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.name)
		})
	}
}

func TestLoad_VertexProjectNeedsGenAI(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_CLOUD_PROJECT", "my-project")
	cfg, err := Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.RequireCredentials())

	t.Setenv("CLIENTLENS_BACKEND", "gemini")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CLIENTLENS_MODEL=gemini-2.5-pro\nPORT=7000\n"), 0o600))
	t.Setenv("PORT", "7001")
	// godotenv only fills variables that are unset.
	require.NoError(t, os.Unsetenv("CLIENTLENS_MODEL"))

	require.NoError(t, LoadDotEnv(path))
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", cfg.Model)
	assert.Equal(t, "7001", cfg.Port)

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"error+2", slog.LevelError + 2},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("verbose")
	assert.ErrorContains(t, err, `"verbose"`)
}
