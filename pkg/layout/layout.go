// Package layout classifies filesystem paths against the workspace layout:
// the managed build-output root, the tracked source tree, and an optional
// sandbox root. Classification happens here, once, instead of as prefix
// checks scattered through the interpreter.
package layout

import (
	"path/filepath"
	"strings"

	"github.com/forjbuild/forj/pkg/types"
)

// Kind is the closed set of path classifications.
type Kind int

const (
	// KindOutside is a path under neither root.
	KindOutside Kind = iota
	// KindBuild is a path under the managed build-output root.
	KindBuild
	// KindSource is a path under the tracked source tree.
	KindSource
	// KindSandbox is a path under the sandbox root.
	KindSandbox
)

func (k Kind) String() string {
	switch k {
	case KindBuild:
		return "build"
	case KindSource:
		return "source"
	case KindSandbox:
		return "sandbox"
	default:
		return "outside"
	}
}

// Layout holds the resolved workspace roots. All paths are absolute.
type Layout struct {
	// BuildRoot is the managed build-output root; Mkdir and most write
	// actions must land under it.
	BuildRoot string

	// SourceRoot is the tracked source tree, used only for detecting
	// promotable files.
	SourceRoot string

	// SandboxRoot is where sandboxed action executions are staged.
	// Empty when sandboxing is not in use.
	SandboxRoot string

	fs types.FS
}

// New returns a Layout over the given roots. fs is used for the existence
// checks behind source-derived detection.
func New(buildRoot, sourceRoot, sandboxRoot string, fs types.FS) *Layout {
	return &Layout{
		BuildRoot:   filepath.Clean(buildRoot),
		SourceRoot:  filepath.Clean(sourceRoot),
		SandboxRoot: sandboxRoot,
		fs:          fs,
	}
}

// Classify returns the Kind of path. The build root wins over the source
// root when nested inside it, which is the usual arrangement (_build under
// the workspace).
func (l *Layout) Classify(path string) Kind {
	path = filepath.Clean(path)
	switch {
	case l.SandboxRoot != "" && isUnder(path, l.SandboxRoot):
		return KindSandbox
	case isUnder(path, l.BuildRoot):
		return KindBuild
	case isUnder(path, l.SourceRoot):
		return KindSource
	default:
		return KindOutside
	}
}

// InBuild reports whether path is inside the managed build-output area,
// either directly or via the sandbox.
func (l *Layout) InBuild(path string) bool {
	k := l.Classify(path)
	return k == KindBuild || k == KindSandbox
}

// SourceFor maps a build-output path back to the tracked source file it was
// derived from, if any. The first path element under the build root is the
// build-context directory and is dropped before looking the remainder up in
// the source tree. Returns ("", false) when path is not source-derived.
func (l *Layout) SourceFor(path string) (string, bool) {
	path = filepath.Clean(path)
	if l.Classify(path) != KindBuild {
		return "", false
	}
	rel, err := filepath.Rel(l.BuildRoot, path)
	if err != nil || rel == "." {
		return "", false
	}
	parts := strings.SplitN(rel, string(filepath.Separator), 2)
	if len(parts) < 2 {
		return "", false
	}
	src := filepath.Join(l.SourceRoot, parts[1])
	if info, err := l.fs.Stat(src); err != nil || info.IsDir() {
		return "", false
	}
	return src, true
}

func isUnder(path, root string) bool {
	if root == "" {
		return false
	}
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
