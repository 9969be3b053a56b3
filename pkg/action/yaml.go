package action

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/forjbuild/forj/pkg/errors"
)

// Decode parses a serialized action tree. Each node is a single-key
// mapping, the key naming the action kind:
//
//	progn:
//	  - mkdir: {dir: _build/default/gen}
//	  - redirect-out:
//	      stream: stdout
//	      target: _build/default/gen/out.txt
//	      inner:
//	        echo: {strings: [hello]}
func Decode(data []byte) (Action, error) {
	var n node
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, errors.Wrap(err, errors.ErrActionDecode, "failed to decode action tree")
	}
	if n.Action == nil {
		return nil, errors.New(errors.ErrActionDecode, "empty action document")
	}
	return n.Action, nil
}

// Encode serializes an action tree into the form Decode accepts.
func Encode(a Action) ([]byte, error) {
	doc, err := encodeNode(a)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

// node wraps an Action so the recursive payload structs below can
// unmarshal inner actions.
type node struct {
	Action Action
}

type runPayload struct {
	Program string   `yaml:"program"`
	Path    string   `yaml:"path"`
	Hint    string   `yaml:"hint,omitempty"`
	Args    []string `yaml:"args,omitempty"`
}

type chdirPayload struct {
	Dir   string `yaml:"dir"`
	Inner node   `yaml:"inner"`
}

type setenvPayload struct {
	Var   string `yaml:"var"`
	Value string `yaml:"value"`
	Inner node   `yaml:"inner"`
}

type redirectOutPayload struct {
	Stream string `yaml:"stream"`
	Target string `yaml:"target"`
	Inner  node   `yaml:"inner"`
}

type redirectInPayload struct {
	Stream string `yaml:"stream"`
	Source string `yaml:"source"`
	Inner  node   `yaml:"inner"`
}

type ignorePayload struct {
	Stream string `yaml:"stream"`
	Inner  node   `yaml:"inner"`
}

type echoPayload struct {
	Strings []string `yaml:"strings"`
}

type filePayload struct {
	File string `yaml:"file"`
}

type srcDstPayload struct {
	Src string `yaml:"src"`
	Dst string `yaml:"dst"`
}

type commandPayload struct {
	Command string `yaml:"command"`
}

type writeFilePayload struct {
	File     string `yaml:"file"`
	Contents string `yaml:"contents"`
}

type dirPayload struct {
	Dir string `yaml:"dir"`
}

type digestPayload struct {
	Files []string `yaml:"files"`
}

type diffPayload struct {
	File1    string `yaml:"file1"`
	File2    string `yaml:"file2"`
	Mode     string `yaml:"mode,omitempty"`
	Optional bool   `yaml:"optional,omitempty"`
}

type mergePayload struct {
	Sources []string `yaml:"sources"`
	Extras  []string `yaml:"extras,omitempty"`
	Target  string   `yaml:"target"`
}

// UnmarshalYAML dispatches on the single mapping key naming the kind.
func (n *node) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode || len(value.Content) != 2 {
		return fmt.Errorf("action node must be a single-key mapping (line %d)", value.Line)
	}
	kind := value.Content[0].Value
	payload := value.Content[1]

	decode := func(out interface{}) error {
		if err := payload.Decode(out); err != nil {
			return fmt.Errorf("invalid %s payload (line %d): %w", kind, payload.Line, err)
		}
		return nil
	}

	switch kind {
	case "run":
		var p runPayload
		if err := decode(&p); err != nil {
			return err
		}
		n.Action = Run{Prog: Program{Name: p.Program, Path: p.Path, Hint: p.Hint}, Args: p.Args}
	case "chdir":
		var p chdirPayload
		if err := decode(&p); err != nil {
			return err
		}
		n.Action = Chdir{Dir: p.Dir, Inner: p.Inner.Action}
	case "setenv":
		var p setenvPayload
		if err := decode(&p); err != nil {
			return err
		}
		n.Action = Setenv{Var: p.Var, Value: p.Value, Inner: p.Inner.Action}
	case "redirect-out":
		var p redirectOutPayload
		if err := decode(&p); err != nil {
			return err
		}
		stream, err := parseStream(p.Stream)
		if err != nil {
			return err
		}
		n.Action = RedirectOut{Stream: stream, Target: p.Target, Inner: p.Inner.Action}
	case "redirect-in":
		var p redirectInPayload
		if err := decode(&p); err != nil {
			return err
		}
		stream, err := parseStream(p.Stream)
		if err != nil {
			return err
		}
		n.Action = RedirectIn{Stream: stream, Source: p.Source, Inner: p.Inner.Action}
	case "ignore":
		var p ignorePayload
		if err := decode(&p); err != nil {
			return err
		}
		stream, err := parseStream(p.Stream)
		if err != nil {
			return err
		}
		n.Action = Ignore{Stream: stream, Inner: p.Inner.Action}
	case "progn":
		var children []node
		if err := decode(&children); err != nil {
			return err
		}
		actions := make([]Action, 0, len(children))
		for _, c := range children {
			actions = append(actions, c.Action)
		}
		n.Action = Progn{Actions: actions}
	case "echo":
		var p echoPayload
		if err := decode(&p); err != nil {
			return err
		}
		n.Action = Echo{Strings: p.Strings}
	case "cat":
		var p filePayload
		if err := decode(&p); err != nil {
			return err
		}
		n.Action = Cat{File: p.File}
	case "copy":
		var p srcDstPayload
		if err := decode(&p); err != nil {
			return err
		}
		n.Action = Copy{Src: p.Src, Dst: p.Dst}
	case "symlink":
		var p srcDstPayload
		if err := decode(&p); err != nil {
			return err
		}
		n.Action = Symlink{Src: p.Src, Dst: p.Dst}
	case "copy-with-line-directive":
		var p srcDstPayload
		if err := decode(&p); err != nil {
			return err
		}
		n.Action = CopyAndAddLineDirective{Src: p.Src, Dst: p.Dst}
	case "system":
		var p commandPayload
		if err := decode(&p); err != nil {
			return err
		}
		n.Action = System{Command: p.Command}
	case "bash":
		var p commandPayload
		if err := decode(&p); err != nil {
			return err
		}
		n.Action = Bash{Command: p.Command}
	case "write-file":
		var p writeFilePayload
		if err := decode(&p); err != nil {
			return err
		}
		n.Action = WriteFile{File: p.File, Contents: p.Contents}
	case "rename":
		var p srcDstPayload
		if err := decode(&p); err != nil {
			return err
		}
		n.Action = Rename{Src: p.Src, Dst: p.Dst}
	case "remove-tree":
		var p dirPayload
		if err := decode(&p); err != nil {
			return err
		}
		n.Action = RemoveTree{Dir: p.Dir}
	case "mkdir":
		var p dirPayload
		if err := decode(&p); err != nil {
			return err
		}
		n.Action = Mkdir{Dir: p.Dir}
	case "digest-files":
		var p digestPayload
		if err := decode(&p); err != nil {
			return err
		}
		n.Action = DigestFiles{Files: p.Files}
	case "diff":
		var p diffPayload
		if err := decode(&p); err != nil {
			return err
		}
		mode := Text
		if p.Mode == "binary" {
			mode = Binary
		} else if p.Mode != "" && p.Mode != "text" {
			return fmt.Errorf("unknown diff mode %q (line %d)", p.Mode, payload.Line)
		}
		n.Action = Diff{File1: p.File1, File2: p.File2, Mode: mode, Optional: p.Optional}
	case "merge-files-into":
		var p mergePayload
		if err := decode(&p); err != nil {
			return err
		}
		n.Action = MergeFilesInto{Sources: p.Sources, Extras: p.Extras, Target: p.Target}
	default:
		return fmt.Errorf("unknown action kind %q (line %d)", kind, value.Line)
	}
	return nil
}

func parseStream(s string) (Stream, error) {
	switch s {
	case "", "stdout":
		return Stdout, nil
	case "stderr":
		return Stderr, nil
	case "outputs":
		return Outputs, nil
	case "stdin":
		return Stdin, nil
	default:
		return Stdout, fmt.Errorf("unknown stream selector %q", s)
	}
}

func encodeNode(a Action) (map[string]interface{}, error) {
	var payload interface{}
	switch act := a.(type) {
	case Run:
		payload = runPayload{Program: act.Prog.Name, Path: act.Prog.Path, Hint: act.Prog.Hint, Args: act.Args}
	case Chdir:
		inner, err := encodeNode(act.Inner)
		if err != nil {
			return nil, err
		}
		payload = map[string]interface{}{"dir": act.Dir, "inner": inner}
	case Setenv:
		inner, err := encodeNode(act.Inner)
		if err != nil {
			return nil, err
		}
		payload = map[string]interface{}{"var": act.Var, "value": act.Value, "inner": inner}
	case RedirectOut:
		inner, err := encodeNode(act.Inner)
		if err != nil {
			return nil, err
		}
		payload = map[string]interface{}{"stream": act.Stream.String(), "target": act.Target, "inner": inner}
	case RedirectIn:
		inner, err := encodeNode(act.Inner)
		if err != nil {
			return nil, err
		}
		payload = map[string]interface{}{"stream": act.Stream.String(), "source": act.Source, "inner": inner}
	case Ignore:
		inner, err := encodeNode(act.Inner)
		if err != nil {
			return nil, err
		}
		payload = map[string]interface{}{"stream": act.Stream.String(), "inner": inner}
	case Progn:
		children := make([]map[string]interface{}, 0, len(act.Actions))
		for _, c := range act.Actions {
			enc, err := encodeNode(c)
			if err != nil {
				return nil, err
			}
			children = append(children, enc)
		}
		payload = children
	case Echo:
		payload = echoPayload{Strings: act.Strings}
	case Cat:
		payload = filePayload{File: act.File}
	case Copy:
		payload = srcDstPayload{Src: act.Src, Dst: act.Dst}
	case Symlink:
		payload = srcDstPayload{Src: act.Src, Dst: act.Dst}
	case CopyAndAddLineDirective:
		payload = srcDstPayload{Src: act.Src, Dst: act.Dst}
	case System:
		payload = commandPayload{Command: act.Command}
	case Bash:
		payload = commandPayload{Command: act.Command}
	case WriteFile:
		payload = writeFilePayload{File: act.File, Contents: act.Contents}
	case Rename:
		payload = srcDstPayload{Src: act.Src, Dst: act.Dst}
	case RemoveTree:
		payload = dirPayload{Dir: act.Dir}
	case Mkdir:
		payload = dirPayload{Dir: act.Dir}
	case DigestFiles:
		payload = digestPayload{Files: act.Files}
	case Diff:
		payload = diffPayload{File1: act.File1, File2: act.File2, Mode: act.Mode.String(), Optional: act.Optional}
	case MergeFilesInto:
		payload = mergePayload{Sources: act.Sources, Extras: act.Extras, Target: act.Target}
	default:
		return nil, errors.Newf(errors.ErrActionInvalid, "cannot encode action %T", a)
	}
	return map[string]interface{}{a.Kind(): payload}, nil
}
