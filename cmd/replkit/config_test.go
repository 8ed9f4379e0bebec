package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigEmptyPathUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "shell.toml")
	content := `
prompt = "repl> "
modules = ["json"]
imports = []
verbose = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "repl> ", cfg.Prompt)
	assert.Equal(t, "... ", cfg.Continuation, "unset keys keep defaults")
	assert.Equal(t, []string{"json"}, cfg.Modules)
	assert.Empty(t, cfg.Imports)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfigMalformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("prompt = ["), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
