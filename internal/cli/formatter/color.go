package formatter

import "github.com/charmbracelet/lipgloss"

var (
	ColorAccent = lipgloss.Color("#5fafd7")
	ColorGreen  = lipgloss.Color("#87af5f")
	ColorYellow = lipgloss.Color("#d7af5f")
	ColorRed    = lipgloss.Color("#d75f5f")
	ColorDim    = lipgloss.Color("#8a8a8a")
	ColorFg     = lipgloss.Color("#dadada")
)

var (
	StyleHeader = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StatusStyle colors a status cell: settled states green, stalled ones red,
// everything in between yellow.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "active", "approved", "accepted", "converted", "delivered", "confirmed", "closed":
		return StyleGreen
	case "inactive", "suspended", "rejected", "expired", "cancelled", "incompatible", "not_serviced":
		return StyleRed
	case "":
		return StyleDim
	default:
		return StyleYellow
	}
}
