package proc_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forjbuild/forj/pkg/buildctx"
	"github.com/forjbuild/forj/pkg/errors"
	"github.com/forjbuild/forj/pkg/iohandle"
	"github.com/forjbuild/forj/pkg/proc"
)

func crossContext(buildRoot string) *buildctx.ExecutionContext {
	target := &buildctx.Context{
		Name:       "esp32",
		BuildDir:   filepath.Join(buildRoot, "esp32"),
		InstallDir: filepath.Join(buildRoot, "esp32", "install"),
		Host: &buildctx.Context{
			Name:       "default",
			BuildDir:   filepath.Join(buildRoot, "default"),
			InstallDir: filepath.Join(buildRoot, "default", "install"),
		},
	}
	return &buildctx.ExecutionContext{Context: target, Purpose: "lib/foo.o"}
}

func TestValidateContextRejectsTargetBinary(t *testing.T) {
	buildRoot := t.TempDir()
	ec := crossContext(buildRoot)

	bin := filepath.Join(buildRoot, "esp32", "install", "bin", "gen")
	err := proc.ValidateContext(ec, bin)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCrossContext))
	assert.Contains(t, err.Error(), "esp32")
	assert.Contains(t, err.Error(), "default")
	assert.Contains(t, err.Error(), "not a user error")
}

func TestValidateContextAllowsHostBinary(t *testing.T) {
	buildRoot := t.TempDir()
	ec := crossContext(buildRoot)

	assert.NoError(t, proc.ValidateContext(ec, filepath.Join(buildRoot, "default", "install", "bin", "gen")))
	assert.NoError(t, proc.ValidateContext(ec, "/usr/bin/cc"))
}

func TestValidateContextSelfHosting(t *testing.T) {
	buildRoot := t.TempDir()
	ec := &buildctx.ExecutionContext{Context: &buildctx.Context{
		Name:       "default",
		BuildDir:   filepath.Join(buildRoot, "default"),
		InstallDir: filepath.Join(buildRoot, "default", "install"),
	}}

	// Self-hosting contexts run their own binaries freely.
	assert.NoError(t, proc.ValidateContext(ec, filepath.Join(buildRoot, "default", "install", "bin", "gen")))
	assert.NoError(t, proc.ValidateContext(nil, "/usr/bin/cc"))
}

func TestRunNeverSpawnsOnCrossContext(t *testing.T) {
	buildRoot := t.TempDir()
	ec := crossContext(buildRoot)
	marker := filepath.Join(buildRoot, "marker")

	launcher := proc.NewLauncher()
	// The command would create the marker file if it ran.
	err := launcher.Run(context.Background(), ec, proc.Spec{
		Path: filepath.Join(buildRoot, "esp32", "bin", "touch"),
		Args: []string{marker},
	})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCrossContext))
	_, statErr := os.Stat(marker)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunCapturesExitCode(t *testing.T) {
	shell, args := proc.ShellCommand("exit 3")

	launcher := proc.NewLauncher()
	err := launcher.Run(context.Background(), nil, proc.Spec{Path: shell, Args: args})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrProcessExit))
	assert.Contains(t, err.Error(), "3")
}

func TestRunRedirectsOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")

	h, err := iohandle.Open(out, iohandle.Output)
	require.NoError(t, err)

	shell, args := proc.ShellCommand("printf hello")
	launcher := proc.NewLauncher()
	require.NoError(t, launcher.Run(context.Background(), nil, proc.Spec{
		Path:   shell,
		Args:   args,
		Dir:    dir,
		Stdout: h,
	}))
	require.NoError(t, h.Release())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestBashCommandFailFast(t *testing.T) {
	bash, args, err := proc.BashCommand("true")
	require.NoError(t, err)
	assert.Contains(t, bash, "bash")
	assert.Equal(t, []string{"-e", "-u", "-o", "pipefail", "-c", "true"}, args)
}
