package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFromTempHome(t *testing.T) *Config {
	t.Helper()
	t.Setenv("FNCHAT_HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestFirstRunCreatesDefaultConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("FNCHAT_HOME", home)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.ActiveProfile)
	assert.Equal(t, defaultModel, cfg.Model())
	assert.Equal(t, DefaultMaxToolRounds, cfg.MaxToolRounds)
	assert.False(t, cfg.IsValid(), "fresh config has no API key")

	// the file must exist afterwards
	_, err = os.Stat(filepath.Join(home, ".fnchat", "config.json"))
	require.NoError(t, err)
}

func TestDefaultGenerationParameters(t *testing.T) {
	gen := DefaultGeneration()

	assert.Equal(t, float64(0), gen.Temperature)
	assert.Equal(t, 1024, gen.MaxTokens)
	assert.Equal(t, float64(1), gen.TopP)
	assert.Equal(t, 50, gen.TopK)
	assert.Equal(t, OverflowTruncate, gen.ContextOverflow)
}

func TestEnvOverridesProfile(t *testing.T) {
	t.Setenv("FNCHAT_API_KEY", "env-key")
	t.Setenv("FNCHAT_MODEL", "env-model")
	t.Setenv("FNCHAT_BASE_URL", "https://example.test/v1")
	t.Setenv("FNCHAT_VISION_MODEL", "env-vision")

	cfg := loadFromTempHome(t)

	assert.True(t, cfg.IsValid())
	assert.Equal(t, "env-key", cfg.APIKey())
	assert.Equal(t, "env-model", cfg.Model())
	assert.Equal(t, "https://example.test/v1", cfg.BaseURL())
	assert.Equal(t, "env-vision", cfg.VisionModel())
}

func TestEnvToolAllowListAndRounds(t *testing.T) {
	t.Setenv("FNCHAT_TOOLS", "get_current_time, render_chart ,")
	t.Setenv("FNCHAT_MAX_TOOL_ROUNDS", "3")

	cfg := loadFromTempHome(t)

	assert.Equal(t, []string{"get_current_time", "render_chart"}, cfg.EnabledTools)
	assert.Equal(t, 3, cfg.MaxToolRounds)
}

func TestLoadRejectsBadOverflowPolicy(t *testing.T) {
	home := t.TempDir()
	t.Setenv("FNCHAT_HOME", home)

	dir := filepath.Join(home, ".fnchat")
	require.NoError(t, os.MkdirAll(dir, 0755))

	raw := map[string]any{
		"profiles":        map[string]any{"default": map[string]any{"api_key": "k"}},
		"active_profile":  "default",
		"generation":      map[string]any{"context_overflow": "explode"},
		"max_tool_rounds": 8,
	}
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), data, 0600))

	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context_overflow")
}

func TestMissingActiveProfileFallsBack(t *testing.T) {
	home := t.TempDir()
	t.Setenv("FNCHAT_HOME", home)

	cfg := Config{
		Profiles: map[string]Profile{
			"work": {APIKey: "k", Model: "m"},
		},
		ActiveProfile: "gone",
		Generation:    DefaultGeneration(),
		MaxToolRounds: DefaultMaxToolRounds,
	}
	dir := filepath.Join(home, ".fnchat")
	require.NoError(t, os.MkdirAll(dir, 0755))
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), data, 0600))

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "work", loaded.ActiveProfile)
	assert.Equal(t, "m", loaded.Model())
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := loadFromTempHome(t)

	cfg.Profiles["extra"] = Profile{APIKey: "key", Model: "model"}
	cfg.ActiveProfile = "extra"
	require.NoError(t, cfg.Save())

	reloaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "extra", reloaded.ActiveProfile)
	assert.Equal(t, "key", reloaded.APIKey())
}
