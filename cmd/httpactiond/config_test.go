package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	assert.True(t, cfg.Factory.ActionPathCaseSensitive)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "httpactiond.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
factory:
  actionPathCaseSensitive: false
  defaultResultType: redirect
server:
  addr: ":9090"
  extension: ".do"
  initParams:
    region: eu
`), 0o600))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.False(t, cfg.Factory.ActionPathCaseSensitive)
	assert.Equal(t, "redirect", cfg.Factory.DefaultResultType)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, ".do", cfg.Server.Extension)
	assert.Equal(t, "eu", cfg.Server.InitParams["region"])
	// untouched keys keep their defaults
	assert.Equal(t, "httpactiond", cfg.Server.Name)
	assert.Equal(t, "info", cfg.Server.LogLevel)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [1, 2"), 0o600))
	_, err = loadConfig(path)
	assert.Error(t, err)
}
