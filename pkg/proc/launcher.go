// Package proc spawns the external processes actions invoke, wiring in the
// execution environment's working directory, variables and IO handles, and
// enforcing build-context isolation before anything is spawned.
package proc

import (
	"context"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/forjbuild/forj/pkg/buildctx"
	"github.com/forjbuild/forj/pkg/errors"
	"github.com/forjbuild/forj/pkg/iohandle"
	"github.com/forjbuild/forj/pkg/logging"
)

// Spec describes one process invocation.
type Spec struct {
	Path   string
	Args   []string
	Dir    string
	Env    []string
	Stdout *iohandle.Handle
	Stderr *iohandle.Handle
	Stdin  *iohandle.Handle
}

// Launcher runs external programs.
type Launcher struct {
	logger zerolog.Logger
}

// NewLauncher creates a Launcher.
func NewLauncher() *Launcher {
	return &Launcher{logger: logging.GetLogger("proc")}
}

// ValidateContext rejects invoking a binary that belongs to the target
// context from its host context. A context that builds via a separate host
// must never execute binaries under its own build or install directories;
// hitting this means the build graph handed us a bad Run node, not that
// the user did anything wrong.
func ValidateContext(ec *buildctx.ExecutionContext, bin string) error {
	if ec == nil || ec.Context == nil || !ec.Context.ForHost() {
		return nil
	}
	c := ec.Context
	if c.Owns(bin) {
		return errors.Newf(errors.ErrCrossContext,
			"binary %s belongs to the %q context but tools for it must come from its host context %q; "+
				"this is a bug in the rules that produced this action, not a user error",
			bin, c.Name, c.HostName()).
			WithDetail("binary", bin).
			WithDetail("context", c.Name).
			WithDetail("host_context", c.HostName()).
			WithDetail("purpose", ec.Purpose)
	}
	return nil
}

// Run spawns the process and waits for it. A non-zero exit status is a
// user-facing failure carrying the exit code.
func (l *Launcher) Run(ctx context.Context, ec *buildctx.ExecutionContext, spec Spec) error {
	if err := ValidateContext(ec, spec.Path); err != nil {
		return err
	}

	l.logger.Debug().
		Str("program", spec.Path).
		Strs("args", spec.Args).
		Str("dir", spec.Dir).
		Msg("Spawning process")

	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	if spec.Stdout != nil {
		cmd.Stdout = spec.Stdout.File()
	}
	if spec.Stderr != nil {
		cmd.Stderr = spec.Stderr.File()
	}
	if spec.Stdin != nil {
		cmd.Stdin = spec.Stdin.File()
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return errors.Newf(errors.ErrProcessExit,
			"command %s exited with code %d", spec.Path, exitErr.ExitCode()).
			WithDetail("program", spec.Path).
			WithDetail("exit_code", exitErr.ExitCode())
	}
	return errors.Wrapf(err, errors.ErrProcessExit, "failed to run %s", spec.Path)
}
