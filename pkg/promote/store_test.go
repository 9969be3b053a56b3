package promote_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forjbuild/forj/pkg/filesystem"
	"github.com/forjbuild/forj/pkg/promote"
)

func TestMemoryStoreDeduplicates(t *testing.T) {
	store := promote.NewMemory()

	require.NoError(t, store.RegisterCorrection("src/a", "build/a.corrected"))
	require.NoError(t, store.RegisterCorrection("src/a", "build/a.corrected"))
	require.NoError(t, store.RegisterIntermediate("src/b", "build/b.corrected"))

	candidates := store.Candidates()
	require.Len(t, candidates, 2)
	assert.False(t, candidates[0].Intermediate)
	assert.True(t, candidates[1].Intermediate)
}

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "promotions.yaml")
	fs := filesystem.NewOS()

	store := promote.NewFileStore(path, fs)
	require.NoError(t, store.RegisterCorrection("src/a", "build/a.corrected"))
	require.NoError(t, store.RegisterIntermediate("src/b", "build/b.corrected"))

	// A fresh store over the same file sees the candidates.
	reopened := promote.NewFileStore(path, fs)
	candidates, err := reopened.Candidates()
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "src/a", candidates[0].Source)
	assert.Equal(t, "build/a.corrected", candidates[0].Correction)
	assert.True(t, candidates[1].Intermediate)
}

func TestFileStoreEmptyWhenMissing(t *testing.T) {
	store := promote.NewFileStore(filepath.Join(t.TempDir(), "promotions.yaml"), filesystem.NewOS())
	candidates, err := store.Candidates()
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestFileStoreApply(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.txt")
	correction := filepath.Join(dir, "correction.txt")
	require.NoError(t, os.WriteFile(source, []byte("old"), 0644))
	require.NoError(t, os.WriteFile(correction, []byte("new"), 0644))

	fs := filesystem.NewOS()
	store := promote.NewFileStore(filepath.Join(dir, "promotions.yaml"), fs)
	require.NoError(t, store.RegisterCorrection(source, correction))
	require.NoError(t, store.RegisterIntermediate(source, filepath.Join(dir, "other.txt")))

	applied, err := store.Apply()
	require.NoError(t, err)
	require.Len(t, applied, 1)

	data, err := os.ReadFile(source)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	// Everything consumed; the store is empty again.
	remaining, err := store.Candidates()
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestFileStoreClear(t *testing.T) {
	dir := t.TempDir()
	store := promote.NewFileStore(filepath.Join(dir, "promotions.yaml"), filesystem.NewOS())
	require.NoError(t, store.RegisterCorrection("a", "b"))
	require.NoError(t, store.Clear())

	candidates, err := store.Candidates()
	require.NoError(t, err)
	assert.Empty(t, candidates)
}
