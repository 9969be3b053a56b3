// Package style renders user-facing engine output (diffs, errors) for the
// terminal. Styling is disabled when stdout is not a terminal or the
// terminal reports no color support.
package style

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

// Renderer styles output lines, or passes them through untouched when
// styling is off.
type Renderer struct {
	enabled bool
}

// NewRenderer creates a renderer for the given output file, auto-detecting
// whether styling should apply.
func NewRenderer(out *os.File) *Renderer {
	enabled := (isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())) &&
		termenv.NewOutput(out).ColorProfile() != termenv.Ascii
	return &Renderer{enabled: enabled}
}

// NewPlainRenderer creates a renderer that never styles.
func NewPlainRenderer() *Renderer {
	return &Renderer{}
}

// Header renders a bold section header.
func (r *Renderer) Header(s string) string {
	if !r.enabled {
		return s
	}
	return headerStyle.Render(s)
}

// Error renders a user-facing error message.
func (r *Renderer) Error(s string) string {
	if !r.enabled {
		return s
	}
	return errorStyle.Render(s)
}

// Diff colorizes a unified diff, line by line.
func (r *Renderer) Diff(diff string) string {
	if !r.enabled {
		return diff
	}
	lines := strings.Split(diff, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			lines[i] = headerStyle.Render(line)
		case strings.HasPrefix(line, "@@"):
			lines[i] = hunkStyle.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = addedStyle.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = removedStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
