// Package style holds the colour palette and icons shared by the CLI output.
package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Arrow   = "→"
	Dot     = "●"
	Prompt  = "$"
)

// Title renders s in the accent colour. It is used for headings printed by
// the CLI outside of the logger.
func Title(s string) string {
	return lipgloss.NewStyle().Foreground(Iris).Bold(true).Render(s)
}
