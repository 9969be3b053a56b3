package forj

import (
	"fmt"
	"io"
	"os"

	"github.com/beevik/etree"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// FormatError renders a top-level error for the console.
func FormatError(err error) string {
	msg := fmt.Sprintf("Error: %v", err)
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return msg
	}
	return pterm.Error.Sprint(msg)
}

// writeXMLResult emits a machine-readable execution result, for callers
// that drive forj from other tools.
func writeXMLResult(w io.Writer, actionsFile string, targets []string, runErr error) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	result := doc.CreateElement("result")
	result.CreateAttr("actions", actionsFile)
	if runErr == nil {
		result.CreateAttr("status", "ok")
	} else {
		result.CreateAttr("status", "failed")
		result.CreateElement("error").SetText(runErr.Error())
	}
	for _, t := range targets {
		result.CreateElement("target").SetText(t)
	}

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}
