// Package action defines the action tree: a small, serializable language
// describing how build outputs are produced. Trees are built once by the
// rule layer and never mutated; the interpreter in pkg/interp walks them.
package action

// Stream selects which of the environment's IO streams a redirect applies
// to.
type Stream int

const (
	// Stdout replaces standard output.
	Stdout Stream = iota
	// Stderr replaces standard error.
	Stderr
	// Outputs replaces both stdout and stderr with the same handle.
	Outputs
	// Stdin replaces standard input; only valid for input redirects.
	Stdin
)

func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	case Outputs:
		return "outputs"
	case Stdin:
		return "stdin"
	default:
		return "unknown"
	}
}

// DiffMode selects how a Diff action compares files.
type DiffMode int

const (
	// Text compares line by line and prints a unified diff on mismatch.
	Text DiffMode = iota
	// Binary compares bytes and reports a mismatch without content.
	Binary
)

func (m DiffMode) String() string {
	if m == Binary {
		return "binary"
	}
	return "text"
}

// Program is a resolved (or failed-to-resolve) program reference. The
// resolver runs before the tree is built; an unresolved program inside a
// Run node fails at execution time, naming the program.
type Program struct {
	// Name is the logical program name as the rule referenced it.
	Name string
	// Path is the resolved filesystem path; empty when resolution failed.
	Path string
	// Hint optionally suggests how to obtain the missing program.
	Hint string
}

// Resolved reports whether the program was found.
func (p Program) Resolved() bool {
	return p.Path != ""
}

// Action is one node of the tree. The variant set is closed: the sealed
// marker keeps implementations inside this package so the interpreter's
// type switch stays exhaustive.
type Action interface {
	Kind() string
	sealed()
}

// Run invokes an external program with the given arguments.
type Run struct {
	Prog Program
	Args []string
}

// Chdir executes Inner with the working directory replaced by Dir.
type Chdir struct {
	Dir   string
	Inner Action
}

// Setenv executes Inner with Var set to Value.
type Setenv struct {
	Var   string
	Value string
	Inner Action
}

// RedirectOut executes Inner with the selected output stream(s) redirected
// to Target.
type RedirectOut struct {
	Stream Stream
	Target string
	Inner  Action
}

// RedirectIn executes Inner with stdin redirected from Source.
type RedirectIn struct {
	Stream Stream
	Source string
	Inner  Action
}

// Ignore executes Inner with the selected output stream(s) redirected to
// the null device.
type Ignore struct {
	Stream Stream
	Inner  Action
}

// Progn executes its actions in order; the environment's handles are
// shared across the whole list.
type Progn struct {
	Actions []Action
}

// Echo writes its strings, joined by single spaces, to stdout without a
// trailing newline.
type Echo struct {
	Strings []string
}

// Cat streams the file's bytes to stdout.
type Cat struct {
	File string
}

// Copy copies Src to Dst byte for byte, overwriting Dst.
type Copy struct {
	Src string
	Dst string
}

// Symlink links Dst to Src, relative to Dst's directory. Platforms without
// symlinks degrade to a copy.
type Symlink struct {
	Src string
	Dst string
}

// CopyAndAddLineDirective copies Src to Dst with a line directive naming
// the original file prepended, so downstream diagnostics attribute the
// generated content to its origin.
type CopyAndAddLineDirective struct {
	Src string
	Dst string
}

// System runs Command through the platform shell.
type System struct {
	Command string
}

// Bash runs Command through bash with fail-fast semantics
// (-e -u -o pipefail).
type Bash struct {
	Command string
}

// WriteFile overwrites File with Contents.
type WriteFile struct {
	File     string
	Contents string
}

// Rename atomically renames Src to Dst.
type Rename struct {
	Src string
	Dst string
}

// RemoveTree removes Dir recursively, best effort.
type RemoveTree struct {
	Dir string
}

// Mkdir creates Dir and missing parents. Dir must lie inside the managed
// build-output area.
type Mkdir struct {
	Dir string
}

// DigestFiles writes the hexadecimal content digest of the ordered file
// list to stdout.
type DigestFiles struct {
	Files []string
}

// Diff compares File1 (expected) against File2 (actual).
type Diff struct {
	File1    string
	File2    string
	Mode     DiffMode
	Optional bool
}

// MergeFilesInto writes the sorted, deduplicated union of the sources'
// lines and the Extras lines to Target.
type MergeFilesInto struct {
	Sources []string
	Extras  []string
	Target  string
}

func (Run) Kind() string                     { return "run" }
func (Chdir) Kind() string                   { return "chdir" }
func (Setenv) Kind() string                  { return "setenv" }
func (RedirectOut) Kind() string             { return "redirect-out" }
func (RedirectIn) Kind() string              { return "redirect-in" }
func (Ignore) Kind() string                  { return "ignore" }
func (Progn) Kind() string                   { return "progn" }
func (Echo) Kind() string                    { return "echo" }
func (Cat) Kind() string                     { return "cat" }
func (Copy) Kind() string                    { return "copy" }
func (Symlink) Kind() string                 { return "symlink" }
func (CopyAndAddLineDirective) Kind() string { return "copy-with-line-directive" }
func (System) Kind() string                  { return "system" }
func (Bash) Kind() string                    { return "bash" }
func (WriteFile) Kind() string               { return "write-file" }
func (Rename) Kind() string                  { return "rename" }
func (RemoveTree) Kind() string              { return "remove-tree" }
func (Mkdir) Kind() string                   { return "mkdir" }
func (DigestFiles) Kind() string             { return "digest-files" }
func (Diff) Kind() string                    { return "diff" }
func (MergeFilesInto) Kind() string          { return "merge-files-into" }

func (Run) sealed()                     {}
func (Chdir) sealed()                   {}
func (Setenv) sealed()                  {}
func (RedirectOut) sealed()             {}
func (RedirectIn) sealed()              {}
func (Ignore) sealed()                  {}
func (Progn) sealed()                   {}
func (Echo) sealed()                    {}
func (Cat) sealed()                     {}
func (Copy) sealed()                    {}
func (Symlink) sealed()                 {}
func (CopyAndAddLineDirective) sealed() {}
func (System) sealed()                  {}
func (Bash) sealed()                    {}
func (WriteFile) sealed()               {}
func (Rename) sealed()                  {}
func (RemoveTree) sealed()              {}
func (Mkdir) sealed()                   {}
func (DigestFiles) sealed()             {}
func (Diff) sealed()                    {}
func (MergeFilesInto) sealed()          {}
