package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the palette and styles for tree and summary output.
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Muted     lipgloss.Color
	Text      lipgloss.Color

	Title    lipgloss.Style
	Branch   lipgloss.Style
	Type     lipgloss.Style
	Label    lipgloss.Style
	Duration lipgloss.Style
	Slow     lipgloss.Style
	Query    lipgloss.Style
	Failure  lipgloss.Style
	Dim      lipgloss.Style
	Border   lipgloss.Style
}

// NewTheme builds the theme against w's color profile, so output to a file
// or buffer carries no escape sequences.
func NewTheme(w io.Writer) Theme {
	r := lipgloss.NewRenderer(w)

	primary := lipgloss.Color("#7C3AED")   // Purple
	secondary := lipgloss.Color("#06B6D4") // Cyan
	success := lipgloss.Color("#22C55E")   // Green
	warning := lipgloss.Color("#EAB308")   // Yellow
	errorC := lipgloss.Color("#EF4444")    // Red
	muted := lipgloss.Color("#6B7280")     // Gray
	text := lipgloss.Color("#F9FAFB")      // White

	return Theme{
		Primary:   primary,
		Secondary: secondary,
		Success:   success,
		Warning:   warning,
		Error:     errorC,
		Muted:     muted,
		Text:      text,

		Title:    r.NewStyle().Bold(true).Foreground(text),
		Branch:   r.NewStyle().Foreground(muted),
		Type:     r.NewStyle().Bold(true).Foreground(primary),
		Label:    r.NewStyle().Foreground(text),
		Duration: r.NewStyle().Foreground(success),
		Slow:     r.NewStyle().Bold(true).Foreground(warning),
		Query:    r.NewStyle().Foreground(secondary),
		Failure:  r.NewStyle().Bold(true).Foreground(errorC),
		Dim:      r.NewStyle().Foreground(muted),
		Border: r.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
	}
}
