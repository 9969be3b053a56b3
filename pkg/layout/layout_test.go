package layout_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forjbuild/forj/pkg/filesystem"
	"github.com/forjbuild/forj/pkg/layout"
)

func newLayout(t *testing.T) (*layout.Layout, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "_build", "default"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	l := layout.New(
		filepath.Join(root, "_build"),
		filepath.Join(root, "src"),
		filepath.Join(root, ".sandbox"),
		filesystem.NewOS(),
	)
	return l, root
}

func TestClassify(t *testing.T) {
	l, root := newLayout(t)

	tests := []struct {
		name string
		path string
		want layout.Kind
	}{
		{name: "build_file", path: filepath.Join(root, "_build", "default", "a.o"), want: layout.KindBuild},
		{name: "build_root_itself", path: filepath.Join(root, "_build"), want: layout.KindBuild},
		{name: "source_file", path: filepath.Join(root, "src", "main.c"), want: layout.KindSource},
		{name: "sandbox_file", path: filepath.Join(root, ".sandbox", "x"), want: layout.KindSandbox},
		{name: "outside", path: "/etc/passwd", want: layout.KindOutside},
		{name: "sibling_prefix", path: filepath.Join(root, "_buildx", "a"), want: layout.KindOutside},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.Classify(tt.path))
		})
	}
}

func TestInBuild(t *testing.T) {
	l, root := newLayout(t)

	assert.True(t, l.InBuild(filepath.Join(root, "_build", "default", "gen")))
	assert.True(t, l.InBuild(filepath.Join(root, ".sandbox", "default", "gen")))
	assert.False(t, l.InBuild(filepath.Join(root, "src", "gen")))
	assert.False(t, l.InBuild("/tmp/elsewhere"))
}

func TestSourceFor(t *testing.T) {
	l, root := newLayout(t)

	// Tracked source file mirrored in the build dir.
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "lexer.expected"), []byte("x"), 0644))

	src, ok := l.SourceFor(filepath.Join(root, "_build", "default", "lexer.expected"))
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "src", "lexer.expected"), src)

	// No corresponding source file.
	_, ok = l.SourceFor(filepath.Join(root, "_build", "default", "lexer.actual"))
	assert.False(t, ok)

	// Not a build path at all.
	_, ok = l.SourceFor(filepath.Join(root, "src", "lexer.expected"))
	assert.False(t, ok)

	// Context directory alone has no source counterpart.
	_, ok = l.SourceFor(filepath.Join(root, "_build", "default"))
	assert.False(t, ok)
}
