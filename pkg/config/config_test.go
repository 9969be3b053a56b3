package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forjbuild/forj/pkg/config"
	"github.com/forjbuild/forj/pkg/errors"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	ws := t.TempDir()

	cfg, err := config.Load(ws)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(ws, "_build"), cfg.BuildRoot(ws))
	assert.Equal(t, ws, cfg.SourceRoot(ws))
	assert.Equal(t, "", cfg.SandboxRoot(ws))
	assert.False(t, cfg.Diff.NormalizeCRLF)
}

func TestLoadWorkspaceFile(t *testing.T) {
	ws := t.TempDir()
	content := `
[workspace]
build-dir = "out"
source-dir = "sources"
sandbox-dir = ".sandbox"

[diff]
normalize-crlf = true
`
	require.NoError(t, os.WriteFile(filepath.Join(ws, config.ConfigFileName), []byte(content), 0644))

	cfg, err := config.Load(ws)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(ws, "out"), cfg.BuildRoot(ws))
	assert.Equal(t, filepath.Join(ws, "sources"), cfg.SourceRoot(ws))
	assert.Equal(t, filepath.Join(ws, ".sandbox"), cfg.SandboxRoot(ws))
	assert.True(t, cfg.Diff.NormalizeCRLF)
	assert.Equal(t, filepath.Join(ws, "out", ".forj", "promotions.yaml"), cfg.PromotionsPath(ws))
}

func TestLoadParseError(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(ws, config.ConfigFileName), []byte("not [valid toml"), 0644))

	_, err := config.Load(ws)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigParse))
}

func TestAbsoluteDirsAreKept(t *testing.T) {
	ws := t.TempDir()
	other := t.TempDir()
	content := "[workspace]\nbuild-dir = \"" + other + "\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(ws, config.ConfigFileName), []byte(content), 0644))

	cfg, err := config.Load(ws)
	require.NoError(t, err)
	assert.Equal(t, other, cfg.BuildRoot(ws))
}
