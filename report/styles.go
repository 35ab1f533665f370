package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	ColorAccent  = lipgloss.Color("#8BC34A")
	ColorPrimary = lipgloss.Color("#2196F3")
	ColorError   = lipgloss.Color("#E53935")
	ColorWarning = lipgloss.Color("#FFC107")
	ColorMuted   = lipgloss.Color("#7A869A")
)

// Styles holds the lipgloss styles used by a Printer.
type Styles struct {
	Banner  lipgloss.Style
	Header  lipgloss.Style
	Rule    lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
}

// NewStyles creates styles bound to w so color support is detected for
// the writer actually printed to.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Banner: r.NewStyle().
			Foreground(ColorAccent).
			Bold(true),
		Header: r.NewStyle().
			Foreground(ColorPrimary).
			Bold(true),
		Rule: r.NewStyle().
			Foreground(ColorMuted),
		Label: r.NewStyle().
			Bold(true),
		Value: r.NewStyle().
			Foreground(ColorAccent),
		Success: r.NewStyle().
			Foreground(ColorAccent).
			Bold(true),
		Error: r.NewStyle().
			Foreground(ColorError).
			Bold(true),
		Warning: r.NewStyle().
			Foreground(ColorWarning),
		Muted: r.NewStyle().
			Foreground(ColorMuted).
			Italic(true),
	}
}

// PlainStyles renders every element unchanged.
func PlainStyles() Styles {
	s := lipgloss.NewStyle()
	return Styles{
		Banner:  s,
		Header:  s,
		Rule:    s,
		Label:   s,
		Value:   s,
		Success: s,
		Error:   s,
		Warning: s,
		Muted:   s,
	}
}
