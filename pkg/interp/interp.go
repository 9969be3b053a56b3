// Package interp is the recursive evaluator over action trees. Execution
// is synchronous on the calling goroutine; sequencing inside a Progn is a
// strict total order, and the only shared resource across sub-actions is
// the environment's reference-counted IO handles.
package interp

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/forjbuild/forj/pkg/action"
	"github.com/forjbuild/forj/pkg/buildctx"
	"github.com/forjbuild/forj/pkg/diffengine"
	"github.com/forjbuild/forj/pkg/digest"
	"github.com/forjbuild/forj/pkg/errors"
	"github.com/forjbuild/forj/pkg/iohandle"
	"github.com/forjbuild/forj/pkg/layout"
	"github.com/forjbuild/forj/pkg/logging"
	"github.com/forjbuild/forj/pkg/proc"
	"github.com/forjbuild/forj/pkg/types"
)

// Interpreter executes action trees. All fields are collaborators wired by
// the execution builder; the interpreter itself holds no mutable state.
type Interpreter struct {
	fs       types.FS
	layout   *layout.Layout
	digests  digest.Provider
	diff     *diffengine.Engine
	launcher *proc.Launcher
	logger   zerolog.Logger
}

// New creates an Interpreter over the given collaborators.
func New(fs types.FS, l *layout.Layout, digests digest.Provider, diff *diffengine.Engine, launcher *proc.Launcher) *Interpreter {
	return &Interpreter{
		fs:       fs,
		layout:   l,
		digests:  digests,
		diff:     diff,
		launcher: launcher,
		logger:   logging.GetLogger("interp"),
	}
}

// Execute walks the tree, performing each action's effects in order. It
// never returns a value; everything is a side effect or a failure.
func (in *Interpreter) Execute(ctx context.Context, act action.Action, ec *buildctx.ExecutionContext, env Env) error {
	in.logger.Trace().
		Str("action", act.Kind()).
		Str("dir", env.Dir).
		Msg("Executing action")

	switch a := act.(type) {
	case action.Run:
		return in.execRun(ctx, a, ec, env)
	case action.Chdir:
		return in.Execute(ctx, a.Inner, ec, env.WithDir(in.resolve(env, a.Dir)))
	case action.Setenv:
		return in.Execute(ctx, a.Inner, ec, env.WithVar(a.Var, a.Value))
	case action.RedirectOut:
		return in.execRedirectOut(ctx, a, ec, env)
	case action.RedirectIn:
		return in.execRedirectIn(ctx, a, ec, env)
	case action.Ignore:
		return in.execIgnore(ctx, a, ec, env)
	case action.Progn:
		return in.execProgn(ctx, a, ec, env)
	case action.Echo:
		_, err := env.Stdout.WriteString(strings.Join(a.Strings, " "))
		return err
	case action.Cat:
		return in.execCat(a, env)
	case action.Copy:
		return in.copyFile(in.resolve(env, a.Src), in.resolve(env, a.Dst))
	case action.Symlink:
		return in.execSymlink(a, env)
	case action.CopyAndAddLineDirective:
		return in.execCopyLineDirective(a, env)
	case action.System:
		shell, args := proc.ShellCommand(a.Command)
		return in.launcher.Run(ctx, ec, in.spec(shell, args, env))
	case action.Bash:
		bash, args, err := proc.BashCommand(a.Command)
		if err != nil {
			return err
		}
		return in.launcher.Run(ctx, ec, in.spec(bash, args, env))
	case action.WriteFile:
		file := in.resolve(env, a.File)
		if err := in.fs.WriteFile(file, []byte(a.Contents), 0644); err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", file)
		}
		return nil
	case action.Rename:
		if err := in.fs.Rename(in.resolve(env, a.Src), in.resolve(env, a.Dst)); err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "failed to rename %s to %s", a.Src, a.Dst)
		}
		return nil
	case action.RemoveTree:
		dir := in.resolve(env, a.Dir)
		if err := in.fs.RemoveAll(dir); err != nil {
			// Removal is best effort; leftover trees are rebuilt over.
			in.logger.Warn().Err(err).Str("dir", dir).Msg("Failed to remove tree")
		}
		return nil
	case action.Mkdir:
		return in.execMkdir(a, env)
	case action.DigestFiles:
		return in.execDigestFiles(a, env)
	case action.Diff:
		return in.diff.Diff(diffengine.Spec{
			File1:    in.resolve(env, a.File1),
			File2:    in.resolve(env, a.File2),
			Mode:     a.Mode,
			Optional: a.Optional,
		})
	case action.MergeFilesInto:
		return in.execMerge(a, env)
	default:
		return errors.Newf(errors.ErrInternal, "unhandled action kind %q", act.Kind())
	}
}

func (in *Interpreter) execRun(ctx context.Context, a action.Run, ec *buildctx.ExecutionContext, env Env) error {
	if !a.Prog.Resolved() {
		err := errors.Newf(errors.ErrProgramNotFound, "program %q not found", a.Prog.Name)
		if a.Prog.Hint != "" {
			err = err.WithDetail("hint", a.Prog.Hint)
		}
		return err
	}
	return in.launcher.Run(ctx, ec, in.spec(a.Prog.Path, a.Args, env))
}

func (in *Interpreter) execRedirectOut(ctx context.Context, a action.RedirectOut, ec *buildctx.ExecutionContext, env Env) (err error) {
	if a.Stream == action.Stdin {
		return errors.Newf(errors.ErrStreamSelector,
			"redirect-out cannot target %s (file %s)", a.Stream, a.Target)
	}

	target := in.resolve(env, a.Target)

	// A redirected Echo is just a file write; skip the handle entirely.
	if echo, ok := a.Inner.(action.Echo); ok && a.Stream != action.Stderr {
		if werr := in.fs.WriteFile(target, []byte(strings.Join(echo.Strings, " ")), 0644); werr != nil {
			return errors.Wrapf(werr, errors.ErrFileWrite, "failed to write %s", target)
		}
		return nil
	}

	h, err := iohandle.Open(target, iohandle.Output)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := h.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	inner := env
	switch a.Stream {
	case action.Stdout:
		inner.Stdout = h
	case action.Stderr:
		inner.Stderr = h
	case action.Outputs:
		inner.Stdout = h
		inner.Stderr = h
	}
	return in.Execute(ctx, a.Inner, ec, inner)
}

func (in *Interpreter) execRedirectIn(ctx context.Context, a action.RedirectIn, ec *buildctx.ExecutionContext, env Env) (err error) {
	if a.Stream != action.Stdin {
		return errors.Newf(errors.ErrStreamSelector,
			"redirect-in cannot target %s (file %s)", a.Stream, a.Source)
	}

	h, err := iohandle.Open(in.resolve(env, a.Source), iohandle.Input)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := h.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	inner := env
	inner.Stdin = h
	return in.Execute(ctx, a.Inner, ec, inner)
}

func (in *Interpreter) execIgnore(ctx context.Context, a action.Ignore, ec *buildctx.ExecutionContext, env Env) (err error) {
	if a.Stream == action.Stdin {
		return errors.Newf(errors.ErrStreamSelector, "ignore cannot target %s", a.Stream)
	}

	h, err := iohandle.Null(iohandle.Output)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := h.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	inner := env
	switch a.Stream {
	case action.Stdout:
		inner.Stdout = h
	case action.Stderr:
		inner.Stderr = h
	case action.Outputs:
		inner.Stdout = h
		inner.Stderr = h
	}
	return in.Execute(ctx, a.Inner, ec, inner)
}

// execProgn runs the actions in order. The environment's three handles are
// shared across the whole list: each sub-action takes its own reference
// and releases it on completion, so a sibling can still write to a
// redirected stream after an earlier sibling finished with it.
func (in *Interpreter) execProgn(ctx context.Context, a action.Progn, ec *buildctx.ExecutionContext, env Env) error {
	switch len(a.Actions) {
	case 0:
		return nil
	case 1:
		return in.Execute(ctx, a.Actions[0], ec, env)
	}

	for _, sub := range a.Actions {
		if err := in.execShared(ctx, sub, ec, env); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) execShared(ctx context.Context, act action.Action, ec *buildctx.ExecutionContext, env Env) (err error) {
	handles := []*iohandle.Handle{env.Stdout.Use(), env.Stderr.Use(), env.Stdin.Use()}
	defer func() {
		for _, h := range handles {
			if rerr := h.Release(); rerr != nil && err == nil {
				err = rerr
			}
		}
	}()
	return in.Execute(ctx, act, ec, env)
}

func (in *Interpreter) execCat(a action.Cat, env Env) error {
	file := in.resolve(env, a.File)
	f, err := in.fs.Open(file)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to open %s", file)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(env.Stdout, f); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to cat %s", file)
	}
	return nil
}

func (in *Interpreter) copyFile(src, dst string) (err error) {
	from, err := in.fs.Open(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to open %s", src)
	}
	defer func() { _ = from.Close() }()

	to, err := in.fs.Create(dst)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to create %s", dst)
	}
	defer func() {
		if cerr := to.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, errors.ErrFileWrite, "failed to close %s", dst)
		}
	}()

	if _, err := io.Copy(to, from); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to copy %s to %s", src, dst)
	}
	return nil
}

func (in *Interpreter) execSymlink(a action.Symlink, env Env) error {
	src := in.resolve(env, a.Src)
	dst := in.resolve(env, a.Dst)

	// No usable symlinks there; a copy preserves the build semantics.
	if runtime.GOOS == "windows" {
		return in.copyFile(src, dst)
	}

	target, err := filepath.Rel(filepath.Dir(dst), src)
	if err != nil {
		target = src
	}

	if existing, rerr := in.fs.Readlink(dst); rerr == nil {
		if existing == target {
			return nil
		}
		if err := in.fs.Remove(dst); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, errors.ErrSymlinkCreate, "failed to replace symlink %s", dst)
		}
	}
	// Readlink failing (not a symlink, nothing there) means we just link.
	if err := in.fs.Symlink(target, dst); err != nil {
		return errors.Wrapf(err, errors.ErrSymlinkCreate, "failed to symlink %s to %s", dst, target)
	}
	return nil
}

func (in *Interpreter) execCopyLineDirective(a action.CopyAndAddLineDirective, env Env) (err error) {
	src := in.resolve(env, a.Src)
	dst := in.resolve(env, a.Dst)

	from, err := in.fs.Open(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to open %s", src)
	}
	defer func() { _ = from.Close() }()

	to, err := in.fs.Create(dst)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to create %s", dst)
	}
	defer func() {
		if cerr := to.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, errors.ErrFileWrite, "failed to close %s", dst)
		}
	}()

	if _, err := io.WriteString(to, "# 1 \""+a.Src+"\"\n"); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write line directive to %s", dst)
	}
	if _, err := io.Copy(to, from); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to copy %s to %s", src, dst)
	}
	return nil
}

func (in *Interpreter) execMkdir(a action.Mkdir, env Env) error {
	dir := in.resolve(env, a.Dir)
	if !in.layout.InBuild(dir) {
		// A mkdir escaping the managed area means the rules computed a bad
		// path; this is never a user mistake.
		return errors.Newf(errors.ErrOutsideBuildDir,
			"mkdir %s is outside the build directory %s", dir, in.layout.BuildRoot).
			WithDetail("dir", dir).
			WithDetail("build_root", in.layout.BuildRoot)
	}
	if err := in.fs.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", dir)
	}
	return nil
}

func (in *Interpreter) execDigestFiles(a action.DigestFiles, env Env) error {
	paths := make([]string, len(a.Files))
	digests := make([]string, len(a.Files))
	for i, f := range a.Files {
		paths[i] = in.resolve(env, f)
		d, err := in.digests.FileDigest(paths[i])
		if err != nil {
			return err
		}
		digests[i] = d
	}
	_, err := env.Stdout.WriteString(digest.Combine(paths, digests))
	return err
}

func (in *Interpreter) execMerge(a action.MergeFilesInto, env Env) error {
	seen := make(map[string]struct{})
	for _, src := range a.Sources {
		path := in.resolve(env, src)
		data, err := in.fs.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", path)
		}
		for _, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
			if line != "" {
				seen[line] = struct{}{}
			}
		}
	}
	for _, line := range a.Extras {
		seen[line] = struct{}{}
	}

	lines := make([]string, 0, len(seen))
	for line := range seen {
		lines = append(lines, line)
	}
	sort.Strings(lines)

	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	target := in.resolve(env, a.Target)
	if err := in.fs.WriteFile(target, []byte(sb.String()), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", target)
	}
	return nil
}

func (in *Interpreter) spec(path string, args []string, env Env) proc.Spec {
	return proc.Spec{
		Path:   path,
		Args:   args,
		Dir:    env.Dir,
		Env:    env.Environ(),
		Stdout: env.Stdout,
		Stderr: env.Stderr,
		Stdin:  env.Stdin,
	}
}

// resolve anchors a relative action path at the environment's working
// directory.
func (in *Interpreter) resolve(env Env, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(env.Dir, path)
}
