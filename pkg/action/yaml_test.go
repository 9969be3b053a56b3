package action_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forjbuild/forj/pkg/action"
)

func TestDecodeTree(t *testing.T) {
	doc := `
progn:
  - mkdir: {dir: _build/default/gen}
  - redirect-out:
      stream: stdout
      target: _build/default/gen/out.txt
      inner:
        echo: {strings: [hello, world]}
  - run:
      program: cc
      path: /usr/bin/cc
      args: [-o, a.out, main.c]
  - diff:
      file1: expected.txt
      file2: actual.txt
      mode: binary
      optional: true
`
	a, err := action.Decode([]byte(doc))
	require.NoError(t, err)

	progn, ok := a.(action.Progn)
	require.True(t, ok)
	require.Len(t, progn.Actions, 4)

	mkdir, ok := progn.Actions[0].(action.Mkdir)
	require.True(t, ok)
	assert.Equal(t, "_build/default/gen", mkdir.Dir)

	redirect, ok := progn.Actions[1].(action.RedirectOut)
	require.True(t, ok)
	assert.Equal(t, action.Stdout, redirect.Stream)
	echo, ok := redirect.Inner.(action.Echo)
	require.True(t, ok)
	assert.Equal(t, []string{"hello", "world"}, echo.Strings)

	run, ok := progn.Actions[2].(action.Run)
	require.True(t, ok)
	assert.Equal(t, "cc", run.Prog.Name)
	assert.Equal(t, "/usr/bin/cc", run.Prog.Path)
	assert.True(t, run.Prog.Resolved())

	diff, ok := progn.Actions[3].(action.Diff)
	require.True(t, ok)
	assert.Equal(t, action.Binary, diff.Mode)
	assert.True(t, diff.Optional)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "unknown_kind", doc: "explode: {dir: x}"},
		{name: "multi_key_node", doc: "mkdir: {dir: x}\necho: {strings: [y]}"},
		{name: "bad_stream", doc: "redirect-out:\n  stream: stdlog\n  target: f\n  inner:\n    echo: {strings: [x]}"},
		{name: "bad_diff_mode", doc: "diff: {file1: a, file2: b, mode: fuzzy}"},
		{name: "scalar_node", doc: "just a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := action.Decode([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tree := action.Progn{Actions: []action.Action{
		action.Setenv{Var: "CC", Value: "gcc", Inner: action.Bash{Command: "make all"}},
		action.Chdir{Dir: "/work", Inner: action.System{Command: "ls"}},
		action.MergeFilesInto{
			Sources: []string{"a.txt", "b.txt"},
			Extras:  []string{"extra"},
			Target:  "merged.txt",
		},
		action.Symlink{Src: "lib/libx.so", Dst: "install/libx.so"},
		action.DigestFiles{Files: []string{"a", "b"}},
	}}

	data, err := action.Encode(tree)
	require.NoError(t, err)

	decoded, err := action.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, tree, decoded)
}

func TestProgramResolved(t *testing.T) {
	assert.False(t, action.Program{Name: "ocamlfind"}.Resolved())
	assert.True(t, action.Program{Name: "cc", Path: "/usr/bin/cc"}.Resolved())
}
