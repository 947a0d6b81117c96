// Package ui renders CLI output for search results, answers, and file
// listings. Colors are applied only when writing to a terminal.
package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color palette. Single accent color, muted support colors.
const (
	colorAccent   = "39"  // blue accent for headers and scores
	colorWhite    = "255" // primary text
	colorGray     = "245" // secondary text, labels
	colorDarkGray = "238" // separators
	colorRed      = "196" // errors
	colorYellow   = "220" // warnings
)

// Styles holds the render styles.
type Styles struct {
	Header    lipgloss.Style
	Source    lipgloss.Style
	Score     lipgloss.Style
	Snippet   lipgloss.Style
	Separator lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
}

// DefaultStyles returns the colored styles.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent)),
		Source:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorWhite)),
		Score:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)),
		Snippet:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color(colorDarkGray)),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow)),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)),
	}
}

// PlainStyles returns unstyled components for pipes and CI.
func PlainStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle(),
		Source:    lipgloss.NewStyle(),
		Score:     lipgloss.NewStyle(),
		Snippet:   lipgloss.NewStyle(),
		Separator: lipgloss.NewStyle(),
		Warning:   lipgloss.NewStyle(),
		Error:     lipgloss.NewStyle(),
	}
}

// StylesFor picks colored or plain styles based on whether w is a
// terminal.
func StylesFor(w io.Writer) Styles {
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return DefaultStyles()
	}
	return PlainStyles()
}
