// Package display renders classification results for the terminal.
package display

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mailsort/internal/domain/email"
)

var (
	Muted    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	Bold     = lipgloss.NewStyle().Bold(true)
	ErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))

	badge = lipgloss.NewStyle().
		Bold(true).
		Padding(0, 2).
		Border(lipgloss.RoundedBorder())
)

type palette struct {
	fg, bg, border string
}

// Tailwind 800/100/400 shades.
var palettes = map[email.Category]palette{
	email.CategoryPrimary:    {"#1e40af", "#dbeafe", "#60a5fa"},
	email.CategoryPromotions: {"#166534", "#dcfce7", "#4ade80"},
	email.CategorySocial:     {"#854d0e", "#fef9c3", "#facc15"},
	email.CategoryUpdates:    {"#6b21a8", "#f3e8ff", "#c084fc"},
	email.CategoryForums:     {"#115e59", "#ccfbf1", "#2dd4bf"},
	email.CategorySpam:       {"#991b1b", "#fee2e2", "#f87171"},
}

var unknownPalette = palette{"#1f2937", "#f3f4f6", "#9ca3af"}

func paletteFor(c email.Category) palette {
	if canonical, ok := c.Canonical(); ok {
		return palettes[canonical]
	}
	return unknownPalette
}

// Badge renders a bordered, colored category label. Unknown labels are gray.
func Badge(r email.Result) string {
	p := paletteFor(r.Category)
	return badge.
		Foreground(lipgloss.Color(p.fg)).
		Background(lipgloss.Color(p.bg)).
		BorderForeground(lipgloss.Color(p.border)).
		Render(strings.ToUpper(r.DisplayCategory()))
}

// Result renders a classification outcome as the block shown after "Category:".
func Result(r email.Result) string {
	if r.Failed() {
		return ErrStyle.Render("Error: " + r.Err.Message)
	}
	out := Bold.Render("Category:") + "\n" + Badge(r)
	if !r.Known {
		out += "\n" + Muted.Render("The model answered with a label outside the six categories.")
	}
	return out
}
