package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("journal dir", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("AUTOHONK_JOURNAL_DIR", "/tmp/journal")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/tmp/journal", cfg.Journal.Dir)
	})

	t.Run("key override", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("AUTOHONK_KEY", "numpad_add")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "numpad_add", cfg.Key.Override)
	})

	t.Run("dry run", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("AUTOHONK_DRY_RUN", "true")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.True(t, cfg.DryRun)
	})

	t.Run("invalid dry run is ignored", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("AUTOHONK_DRY_RUN", "maybe")

		cfg := &Config{DryRun: true}
		cfg.applyEnvOverrides()

		assert.True(t, cfg.DryRun)
	})

	t.Run("empty values leave config alone", func(t *testing.T) {
		clearEnv(t)

		cfg := DefaultConfig()
		want := *cfg
		cfg.applyEnvOverrides()

		assert.Equal(t, want.Journal.Dir, cfg.Journal.Dir)
		assert.Equal(t, want.Logging.Level, cfg.Logging.Level)
	})
}

func TestEnvOverrides_AppliedByLoad(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTOHONK_LOG_LEVEL", "debug")

	cfg, err := Load(t.TempDir() + "/missing.yaml")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvOverrides_UpperCaseLevelValidates(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTOHONK_LOG_LEVEL", "DEBUG")
	t.Setenv("AUTOHONK_JOURNAL_DIR", t.TempDir())

	cfg, err := Load(t.TempDir() + "/missing.yaml")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "debug", cfg.Logging.Level)
}
