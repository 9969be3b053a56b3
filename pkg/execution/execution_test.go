package execution_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forjbuild/forj/pkg/action"
	"github.com/forjbuild/forj/pkg/buildctx"
	"github.com/forjbuild/forj/pkg/diffengine"
	"github.com/forjbuild/forj/pkg/digest"
	"github.com/forjbuild/forj/pkg/errors"
	"github.com/forjbuild/forj/pkg/execution"
	"github.com/forjbuild/forj/pkg/filesystem"
	"github.com/forjbuild/forj/pkg/interp"
	"github.com/forjbuild/forj/pkg/layout"
	"github.com/forjbuild/forj/pkg/proc"
	"github.com/forjbuild/forj/pkg/promote"
)

func newInterp(t *testing.T) (*interp.Interpreter, string) {
	t.Helper()
	root := t.TempDir()
	build := filepath.Join(root, "_build", "default")
	require.NoError(t, os.MkdirAll(build, 0755))

	fs := filesystem.NewOS()
	lay := layout.New(filepath.Join(root, "_build"), root, "", fs)
	engine := diffengine.New(fs, promote.NewMemory(), lay, &bytes.Buffer{}, nil, diffengine.Options{})
	return interp.New(fs, lay, digest.NewCache(fs), engine, proc.NewLauncher()), build
}

func TestExecRunsTree(t *testing.T) {
	in, build := newInterp(t)

	tree := action.Progn{Actions: []action.Action{
		action.Mkdir{Dir: filepath.Join(build, "gen")},
		action.WriteFile{File: filepath.Join(build, "gen", "out.txt"), Contents: "done"},
	}}

	err := execution.Exec(context.Background(), in, tree, execution.Params{
		Targets: []string{"gen/out.txt"},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(build, "gen", "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "done", string(data))
}

func TestExecUsesContextEnvAndDir(t *testing.T) {
	in, build := newInterp(t)

	ctx := &buildctx.Context{
		Name:     "default",
		BuildDir: build,
		Env:      map[string]string{"PATH": os.Getenv("PATH"), "FORJ_MARK": "from-context"},
	}

	// Relative paths resolve against the context build dir, and the
	// recorded environment is what the process sees.
	tree := action.RedirectOut{
		Stream: action.Stdout,
		Target: "mark.txt",
		Inner:  action.System{Command: "printf %s \"$FORJ_MARK\""},
	}
	require.NoError(t, execution.Exec(context.Background(), in, tree, execution.Params{Context: ctx}))

	data, err := os.ReadFile(filepath.Join(build, "mark.txt"))
	require.NoError(t, err)
	assert.Equal(t, "from-context", string(data))
}

func TestExecExplicitEnvWins(t *testing.T) {
	in, build := newInterp(t)

	ctx := &buildctx.Context{
		Name:     "default",
		BuildDir: build,
		Env:      map[string]string{"FORJ_MARK": "from-context"},
	}

	tree := action.RedirectOut{
		Stream: action.Stdout,
		Target: "mark.txt",
		Inner:  action.System{Command: "printf %s \"$FORJ_MARK\""},
	}
	err := execution.Exec(context.Background(), in, tree, execution.Params{
		Context: ctx,
		Env:     map[string]string{"PATH": os.Getenv("PATH"), "FORJ_MARK": "override"},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(build, "mark.txt"))
	require.NoError(t, err)
	assert.Equal(t, "override", string(data))
}

func TestExecPropagatesFailure(t *testing.T) {
	in, _ := newInterp(t)

	err := execution.Exec(context.Background(), in,
		action.Run{Prog: action.Program{Name: "missing-tool"}}, execution.Params{})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrProgramNotFound))
}
