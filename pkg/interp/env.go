package interp

import (
	"sort"
	"strings"

	"github.com/forjbuild/forj/pkg/iohandle"
)

// Env is the execution environment threaded through the interpreter:
// working directory, variables, and the three IO handles. It is updated
// functionally; a descent into a sub-action gets a fresh value and sibling
// branches never observe each other's overrides.
type Env struct {
	Dir    string
	Vars   map[string]string
	Stdout *iohandle.Handle
	Stderr *iohandle.Handle
	Stdin  *iohandle.Handle
}

// WithDir returns a copy whose working directory is replaced by dir.
func (e Env) WithDir(dir string) Env {
	e.Dir = dir
	return e
}

// WithVar returns a copy whose variable map gains (or overwrites) k. The
// map is copied so the parent's environment stays untouched.
func (e Env) WithVar(k, v string) Env {
	vars := make(map[string]string, len(e.Vars)+1)
	for key, val := range e.Vars {
		vars[key] = val
	}
	vars[k] = v
	e.Vars = vars
	return e
}

// Environ renders the variables in the os.Environ "k=v" form, sorted for
// deterministic process invocation.
func (e Env) Environ() []string {
	out := make([]string, 0, len(e.Vars))
	for k, v := range e.Vars {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// EnvironMap parses "k=v" pairs into a variable map.
func EnvironMap(environ []string) map[string]string {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			vars[kv[:i]] = kv[i+1:]
		}
	}
	return vars
}
