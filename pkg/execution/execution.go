// Package execution builds the top-level execution context and environment
// for one action tree and hands it to the interpreter. One Exec call per
// fully-resolved tree; the scheduler deciding what to run lives elsewhere.
package execution

import (
	"context"
	"os"
	"strings"

	"github.com/forjbuild/forj/pkg/action"
	"github.com/forjbuild/forj/pkg/buildctx"
	"github.com/forjbuild/forj/pkg/interp"
	"github.com/forjbuild/forj/pkg/iohandle"
	"github.com/forjbuild/forj/pkg/logging"
)

// Params configures one top-level execution.
type Params struct {
	// Context is the optional build context the tree executes for.
	Context *buildctx.Context

	// Env overrides the starting variables. Nil falls back to the build
	// context's recorded environment, then to the ambient process
	// environment.
	Env map[string]string

	// Targets are the files this execution produces; used only for the
	// purpose tag in diagnostics.
	Targets []string

	// Dir is the starting working directory. Empty falls back to the
	// context's build directory, then to the process working directory.
	Dir string
}

// Exec runs one action tree to completion. The caller's stdio is inherited
// for any stream the tree does not redirect.
func Exec(ctx context.Context, in *interp.Interpreter, root action.Action, p Params) (err error) {
	logger := logging.GetLogger("execution")

	ec := &buildctx.ExecutionContext{
		Context: p.Context,
		Purpose: purpose(p.Targets),
	}

	vars := p.Env
	if vars == nil && p.Context != nil && p.Context.Env != nil {
		vars = p.Context.Env
	}
	if vars == nil {
		vars = interp.EnvironMap(os.Environ())
	}

	dir := p.Dir
	if dir == "" && p.Context != nil {
		dir = p.Context.BuildDir
	}
	if dir == "" {
		if wd, werr := os.Getwd(); werr == nil {
			dir = wd
		}
	}

	env := interp.Env{
		Dir:    dir,
		Vars:   vars,
		Stdout: iohandle.Inherit(os.Stdout),
		Stderr: iohandle.Inherit(os.Stderr),
		Stdin:  iohandle.Inherit(os.Stdin),
	}
	defer func() {
		for _, h := range []*iohandle.Handle{env.Stdout, env.Stderr, env.Stdin} {
			if rerr := h.Release(); rerr != nil && err == nil {
				err = rerr
			}
		}
	}()

	logger.Debug().
		Str("purpose", ec.Purpose).
		Str("dir", dir).
		Msg("Executing action tree")

	return in.Execute(ctx, root, ec, env)
}

// purpose renders the target set as the diagnostic tag attached to this
// execution.
func purpose(targets []string) string {
	if len(targets) == 0 {
		return "(anonymous)"
	}
	return strings.Join(targets, ", ")
}
