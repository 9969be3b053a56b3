// Package diffengine compares an expected artifact against a produced one,
// reports mismatches to the user, and records promotion candidates when
// the expected file came from the tracked source tree.
package diffengine

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"

	"github.com/forjbuild/forj/pkg/action"
	"github.com/forjbuild/forj/pkg/errors"
	"github.com/forjbuild/forj/pkg/layout"
	"github.com/forjbuild/forj/pkg/logging"
	"github.com/forjbuild/forj/pkg/promote"
	"github.com/forjbuild/forj/pkg/style"
	"github.com/forjbuild/forj/pkg/types"
)

// Spec describes one comparison. File1 is the expected artifact, File2 the
// produced one. When Optional is set and the files are equal, File2 was a
// scratch file and is removed.
type Spec struct {
	File1    string
	File2    string
	Mode     action.DiffMode
	Optional bool
}

// Options configures diff behavior.
type Options struct {
	// NormalizeCRLF tolerates a single trailing carriage return per line
	// in text comparisons. Set by the embedding build tool, not sniffed
	// from the platform.
	NormalizeCRLF bool
}

// Engine performs comparisons and promotion bookkeeping.
type Engine struct {
	fs     types.FS
	store  promote.Store
	layout *layout.Layout
	out    io.Writer
	style  *style.Renderer
	opts   Options
	logger zerolog.Logger
}

// New creates an Engine. out receives diff output for the user; it is the
// console, not the action's redirected stdout.
func New(fs types.FS, store promote.Store, l *layout.Layout, out io.Writer, st *style.Renderer, opts Options) *Engine {
	if st == nil {
		st = style.NewPlainRenderer()
	}
	return &Engine{
		fs:     fs,
		store:  store,
		layout: l,
		out:    out,
		opts:   opts,
		style:  st,
		logger: logging.GetLogger("diffengine"),
	}
}

// Diff runs the comparison. The promotion bookkeeping runs on every exit
// path after a mismatch, including the binary-mismatch error path.
func (e *Engine) Diff(sp Spec) (err error) {
	equal, err := e.equal(sp)
	if err != nil {
		return err
	}

	if equal {
		if sp.Optional {
			return e.removeIfExists(sp.File2)
		}
		return nil
	}

	// Bookkeeping must happen even when reporting below fails, which it
	// does by contract for binary mismatches.
	defer func() {
		if ferr := e.finalize(sp); ferr != nil && err == nil {
			err = ferr
		}
	}()

	if sp.Mode == action.Binary {
		return errors.Newf(errors.ErrDiffBinary,
			"files %s and %s differ", sp.File1, sp.File2).
			WithDetail("expected", sp.File1).
			WithDetail("actual", sp.File2)
	}

	return e.printUnified(sp)
}

// equal compares the two files under the spec's mode.
func (e *Engine) equal(sp Spec) (bool, error) {
	a, err := e.fs.ReadFile(sp.File1)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", sp.File1)
	}
	b, err := e.fs.ReadFile(sp.File2)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", sp.File2)
	}

	if sp.Mode == action.Binary {
		return bytes.Equal(a, b), nil
	}
	if !e.opts.NormalizeCRLF {
		return bytes.Equal(a, b), nil
	}

	al := splitLines(string(a))
	bl := splitLines(string(b))
	if len(al) != len(bl) {
		return false, nil
	}
	for i := range al {
		if strings.TrimSuffix(al[i], "\r") != strings.TrimSuffix(bl[i], "\r") {
			return false, nil
		}
	}
	return true, nil
}

func (e *Engine) printUnified(sp Spec) error {
	a, err := e.fs.ReadFile(sp.File1)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", sp.File1)
	}
	b, err := e.fs.ReadFile(sp.File2)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", sp.File2)
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: sp.File1,
		ToFile:   sp.File2,
		Context:  3,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to compute diff")
	}

	if _, err := io.WriteString(e.out, e.style.Diff(text)); err != nil {
		return errors.Wrap(err, errors.ErrFileWrite, "failed to print diff")
	}
	return nil
}

// finalize records promotion candidates after a mismatch. For a mandatory
// diff, a correction is registered when the expected file is source-derived
// and the produced one is not. For an optional diff, a source-derived
// expected file yields the weaker intermediate registration; otherwise the
// produced file was disposable and is removed.
func (e *Engine) finalize(sp Spec) error {
	src, derived := e.layout.SourceFor(sp.File1)

	if !sp.Optional {
		if !derived {
			return nil
		}
		if _, actualDerived := e.layout.SourceFor(sp.File2); actualDerived {
			return nil
		}
		e.logger.Info().
			Str("source", src).
			Str("correction", sp.File2).
			Msg("Registering promotion correction")
		return e.store.RegisterCorrection(src, sp.File2)
	}

	if derived {
		e.logger.Debug().
			Str("source", src).
			Str("correction", sp.File2).
			Msg("Registering intermediate promotion candidate")
		return e.store.RegisterIntermediate(src, sp.File2)
	}
	return e.removeIfExists(sp.File2)
}

// removeIfExists deletes path, tolerating a concurrent removal.
func (e *Engine) removeIfExists(path string) error {
	if err := e.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to remove %s", path)
	}
	return nil
}

func splitLines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
