package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-lc3/lc3sim/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_MatchesDocumentedDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, uint64(0), cfg.Execution.MaxCycles)
	assert.Equal(t, "x3000", cfg.Execution.DefaultOrigin)
	assert.Equal(t, 1000, cfg.Debugger.HistorySize)
	assert.Equal(t, "hex", cfg.Display.NumberFormat)
	assert.Equal(t, "127.0.0.1:8374", cfg.API.ListenAddr)
}

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "nonexistent.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestSaveToThenLoadFrom_RoundTripsCustomValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.DefaultConfig()
	cfg.Execution.MaxCycles = 5000
	cfg.Display.NumberFormat = "dec"
	cfg.API.ListenAddr = "0.0.0.0:9000"

	require.NoError(t, cfg.SaveTo(path))

	loaded, err := config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), loaded.Execution.MaxCycles)
	assert.Equal(t, "dec", loaded.Display.NumberFormat)
	assert.Equal(t, "0.0.0.0:9000", loaded.API.ListenAddr)
}

func TestLoadFrom_InvalidTOMLIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("this is not [valid toml"), 0o644))

	_, err := config.LoadFrom(path)
	assert.Error(t, err)
}

func TestGetConfigPath_ReturnsNonEmptyPath(t *testing.T) {
	assert.NotEmpty(t, config.GetConfigPath())
}

func TestGetLogPath_ReturnsNonEmptyPath(t *testing.T) {
	assert.NotEmpty(t, config.GetLogPath())
}
