// Package iohandle manages the reference-counted IO handles threaded
// through action execution. A handle wraps either an opened file or an
// inherited process stream; sibling actions in a sequence share one handle
// and each releases its own reference, so the underlying file is closed
// exactly once, when the count reaches zero.
package iohandle

import (
	"os"

	"github.com/forjbuild/forj/pkg/errors"
)

// Direction says which way bytes flow through a handle.
type Direction int

const (
	// Input handles feed a process or action stdin.
	Input Direction = iota
	// Output handles receive stdout/stderr bytes.
	Output
)

// Handle is a reference-counted wrapper around an IO stream. Every Open,
// Inherit or Use must be paired with exactly one Release.
type Handle struct {
	file      *os.File
	path      string
	inherited bool
	refs      int
}

// Open opens path for the given direction and returns a handle with one
// reference. Output handles truncate.
func Open(path string, dir Direction) (*Handle, error) {
	var f *os.File
	var err error
	switch dir {
	case Input:
		f, err = os.Open(path)
	default:
		f, err = os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to open %s", path)
	}
	return &Handle{file: f, path: path, refs: 1}, nil
}

// Null opens the platform null device for the given direction.
func Null(dir Direction) (*Handle, error) {
	return Open(os.DevNull, dir)
}

// Inherit wraps a stream inherited from the calling process, such as
// os.Stdout. Releasing the last reference never closes the underlying file.
func Inherit(f *os.File) *Handle {
	return &Handle{file: f, inherited: true, refs: 1}
}

// Use increments the reference count and returns the same handle. The
// caller owes one Release for it.
func (h *Handle) Use() *Handle {
	h.refs++
	return h
}

// Release drops one reference. The underlying file is closed only when the
// count reaches zero. Releasing a handle whose count is already zero is a
// caller bug and reported as an invariant violation.
func (h *Handle) Release() error {
	if h.refs <= 0 {
		return errors.Newf(errors.ErrHandleRelease,
			"handle for %s released more times than acquired", h.describe())
	}
	h.refs--
	if h.refs > 0 || h.inherited {
		return nil
	}
	if err := h.file.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to close %s", h.path)
	}
	return nil
}

// File exposes the underlying *os.File for process wiring.
func (h *Handle) File() *os.File {
	return h.file
}

// Path returns the file path behind the handle, or "" for inherited
// streams.
func (h *Handle) Path() string {
	return h.path
}

// Write implements io.Writer so actions can write to a handle directly.
func (h *Handle) Write(p []byte) (int, error) {
	return h.file.Write(p)
}

// WriteString writes s to the handle.
func (h *Handle) WriteString(s string) (int, error) {
	return h.file.WriteString(s)
}

// Read implements io.Reader.
func (h *Handle) Read(p []byte) (int, error) {
	return h.file.Read(p)
}

func (h *Handle) describe() string {
	if h.path != "" {
		return h.path
	}
	if h.inherited {
		return "inherited stream"
	}
	return "stream"
}
