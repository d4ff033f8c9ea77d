// Package roster renders the player list for the current room.
package roster

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dost-app/tui/internal/client"
	"github.com/dost-app/tui/internal/theme"
)

// Model holds the roster panel state. The player slice is the read-only
// snapshot from the session's derived view, replaced wholesale on update.
type Model struct {
	Players []client.PlayerInfo
	Width   int
}

// New creates a roster model.
func New() Model {
	return Model{}
}

// SetPlayers replaces the roster snapshot.
func (m *Model) SetPlayers(players []client.PlayerInfo) {
	m.Players = players
}

// View renders the roster panel.
func (m Model) View() string {
	header := theme.StyleHeader.Render("Players")
	lines := []string{header}

	if len(m.Players) == 0 {
		lines = append(lines, theme.StyleDimmed.Render("waiting for players..."))
	}
	for _, p := range m.Players {
		symbol := lipgloss.NewStyle().
			Foreground(theme.SymbolColor(p.Symbol)).
			Render(symbolOrDot(p.Symbol))
		name := p.Username
		if name == "" {
			name = fmt.Sprintf("player %d", p.ID)
		}
		lines = append(lines, fmt.Sprintf("%s %s  %s", symbol, name,
			theme.StyleDimmed.Render(fmt.Sprintf("%d pts", p.Score))))
	}

	return theme.StylePanel.Width(m.panelWidth()).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) panelWidth() int {
	if m.Width < 24 {
		return 24
	}
	return m.Width
}

func symbolOrDot(symbol string) string {
	if symbol == "" {
		return "·"
	}
	return symbol
}
