// Package buildctx describes build contexts: named environments (such as a
// cross-compilation target) an action tree executes inside. A context may
// declare a host context used to run tools while building for the target.
package buildctx

import (
	"path/filepath"
	"strings"
)

// Context is a named build context. Immutable once constructed.
type Context struct {
	// Name identifies the context ("default", "esp32", ...). It is also the
	// name of the context's directory under the build root.
	Name string

	// Host is the context whose binaries are used to run tools while
	// building this context. Nil means the context is self-hosting.
	Host *Context

	// Env is the environment recorded for this context, used when the
	// caller does not supply an explicit starting environment.
	Env map[string]string

	// BuildDir is the context's directory under the build root.
	BuildDir string

	// InstallDir is the context's install area under BuildDir.
	InstallDir string
}

// ForHost reports whether tools for this context run in a separate host
// context.
func (c *Context) ForHost() bool {
	return c != nil && c.Host != nil
}

// HostName returns the name of the context binaries should come from.
func (c *Context) HostName() string {
	if c.ForHost() {
		return c.Host.Name
	}
	return c.Name
}

// Owns reports whether path lies under this context's build or install
// directories.
func (c *Context) Owns(path string) bool {
	if c == nil {
		return false
	}
	return under(path, c.BuildDir) || under(path, c.InstallDir)
}

func under(path, dir string) bool {
	if dir == "" {
		return false
	}
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

// ExecutionContext is the immutable per-invocation context handed to the
// interpreter: the optional build context plus a purpose tag used only for
// diagnostics and tracing.
type ExecutionContext struct {
	Context *Context
	Purpose string
}
