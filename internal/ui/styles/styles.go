// Package styles contains Lip Gloss style definitions for console output.
// Styles are bound to the writer they render for, so colour is dropped
// automatically when output is not a terminal.
package styles

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#696969"}
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#B7950B", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	AccentColor        = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#3498DB"}
)

// SeparatorWidth is the width of the rule printed before the console starts.
const SeparatorWidth = 35

// Palette renders console output for one writer.
type Palette struct {
	Banner  lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// New returns a palette whose colour profile matches w.
func New(w io.Writer) *Palette {
	r := lipgloss.NewRenderer(w)
	return &Palette{
		Banner:  r.NewStyle().Bold(true).Foreground(AccentColor),
		Muted:   r.NewStyle().Foreground(TextMutedColor),
		Success: r.NewStyle().Foreground(StatusSuccessColor),
		Warning: r.NewStyle().Foreground(StatusWarningColor),
		Error:   r.NewStyle().Bold(true).Foreground(StatusErrorColor),
	}
}

// Separator returns the rule between startup output and the prompt.
func (p *Palette) Separator() string {
	return p.Muted.Render(strings.Repeat("=", SeparatorWidth))
}

// ErrorLine prefixes msg with a styled "ERROR:".
func (p *Palette) ErrorLine(msg string) string {
	return p.Error.Render("ERROR:") + " " + msg
}
