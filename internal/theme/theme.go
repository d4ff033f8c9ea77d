// Package theme provides the Lip Gloss color palette and reusable styles
// for the dost TUI. It is a leaf package with no internal imports to avoid
// import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Room status colors.
var (
	ColorWaiting    = lipgloss.Color("#d97706")
	ColorInProgress = lipgloss.Color("#3b82f6")
	ColorFinished   = lipgloss.Color("#16a34a")
	ColorAbandoned  = lipgloss.Color("#6b7280")
)

// Player symbol colors.
var (
	ColorSymbolX = lipgloss.Color("#a855f7")
	ColorSymbolO = lipgloss.Color("#06b6d4")
	ColorSymbol  = lipgloss.Color("#22c55e")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
	ColorCalm    = lipgloss.Color("#7dd3fc")
)

// Reusable styles.
var (
	StyleHeader = lipgloss.NewStyle().Bold(true).Foreground(ColorBright)
	StyleDimmed = lipgloss.NewStyle().Foreground(ColorDimmed)
	StylePanel  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)

// StatusColor returns the color for a room status string.
func StatusColor(status string) lipgloss.Color {
	switch status {
	case "waiting":
		return ColorWaiting
	case "in-progress":
		return ColorInProgress
	case "finished":
		return ColorFinished
	case "abandoned":
		return ColorAbandoned
	default:
		return ColorDimmed
	}
}

// SymbolColor returns the color for a player's assigned symbol.
func SymbolColor(symbol string) lipgloss.Color {
	switch symbol {
	case "X":
		return ColorSymbolX
	case "O":
		return ColorSymbolO
	default:
		return ColorSymbol
	}
}
