package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		t.Setenv("AI_PLUGIN", "")
		os.Unsetenv("AI_PLUGIN")

		cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)

		assert.Equal(t, "gemini", cfg.AI.Plugin)
		assert.Equal(t, "qwen3:4b", cfg.AI.Ollama.Model)
		assert.Equal(t, "http://localhost:11434", cfg.AI.Ollama.BaseURL)
		assert.Equal(t, 8000, cfg.Server.Port)
		assert.Equal(t, 25, cfg.Agent.MaxTurns)
		assert.Equal(t, 1, cfg.Agent.ToolConcurrency)
		assert.Equal(t, "USD", cfg.Currency.Default)
		assert.Equal(t, "US", cfg.Currency.DefaultCountry)
		assert.Equal(t, 200*time.Millisecond, cfg.GoogleMaps.RequestDelay)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
	})

	t.Run("EnvironmentVariables", func(t *testing.T) {
		t.Setenv("AI_PLUGIN", "ollama")
		t.Setenv("GEMINI_API_KEY", "test-key")
		t.Setenv("AGENT_MAX_TURNS", "8")
		t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

		cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "ollama", cfg.AI.Plugin)
		assert.Equal(t, "test-key", cfg.AI.Gemini.APIKey)
		assert.Equal(t, 8, cfg.Agent.MaxTurns)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	})

	t.Run("YAMLFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("agent:\n  max_turns: 5\n  timezone: Asia/Kolkata\ncurrency:\n  default: EUR\n  default_country: DE\n"), 0o600))

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Agent.MaxTurns)
		assert.Equal(t, "EUR", cfg.Currency.Default)

		loc, err := cfg.Agent.Location()
		require.NoError(t, err)
		assert.Equal(t, "Asia/Kolkata", loc.String())
	})

	t.Run("RejectsNonPositiveMaxTurns", func(t *testing.T) {
		t.Setenv("AGENT_MAX_TURNS", "0")
		_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}
