// Package status renders the connection/room status bar.
package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dost-app/tui/internal/client"
	"github.com/dost-app/tui/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	RoomCode   string
	Connected  bool
	Connecting bool
	GameStatus client.GameStatus
	Players    int
	Width      int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	switch {
	case m.Connected:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	case m.Connecting:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorWarning).Render("◌ Connecting...")
	default:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Offline")
	}

	room := theme.StyleDimmed.Render("no room")
	if m.RoomCode != "" {
		room = theme.StyleHeader.Render("room " + m.RoomCode)
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr + sep + room

	if m.GameStatus != "" {
		statusStr := lipgloss.NewStyle().
			Foreground(theme.StatusColor(string(m.GameStatus))).
			Render(string(m.GameStatus))
		content += sep + statusStr
	}
	if m.Players > 0 {
		content += sep + fmt.Sprintf("%d player(s)", m.Players)
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
