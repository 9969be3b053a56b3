// Test Type: Unit Test
// Description: Reference counting and release semantics for IO handles

package iohandle_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forjbuild/forj/pkg/errors"
	"github.com/forjbuild/forj/pkg/iohandle"
)

func TestOpenWriteRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	h, err := iohandle.Open(path, iohandle.Output)
	require.NoError(t, err)

	_, err = h.WriteString("hello")
	require.NoError(t, err)
	require.NoError(t, h.Release())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestMultiUseClosesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	h, err := iohandle.Open(path, iohandle.Output)
	require.NoError(t, err)

	// Two extra references, as two sibling actions would take.
	h.Use()
	h.Use()

	_, err = h.WriteString("a")
	require.NoError(t, err)
	require.NoError(t, h.Release())

	// Still open: the second sibling can write after the first released.
	_, err = h.WriteString("b")
	require.NoError(t, err)
	require.NoError(t, h.Release())
	require.NoError(t, h.Release())

	// Closed now: further writes fail.
	_, err = h.WriteString("c")
	assert.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(data))
}

func TestDoubleReleaseIsInvariantViolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	h, err := iohandle.Open(path, iohandle.Output)
	require.NoError(t, err)
	require.NoError(t, h.Release())

	err = h.Release()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrHandleRelease))
	assert.True(t, errors.IsInvariantViolation(err))
}

func TestInheritedStreamNeverCloses(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stream")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	h := iohandle.Inherit(f)
	require.NoError(t, h.Release())

	// The underlying file survives releasing the last reference.
	_, err = f.WriteString("still open")
	assert.NoError(t, err)
}

func TestOpenInputMissingFile(t *testing.T) {
	_, err := iohandle.Open(filepath.Join(t.TempDir(), "absent"), iohandle.Input)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileAccess))
}
