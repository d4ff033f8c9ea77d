// Package chat renders the in-room chat log and input line.
package chat

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/dost-app/tui/internal/theme"
)

// maxLines bounds the retained chat history.
const maxLines = 100

type line struct {
	username string
	message  string
}

// Model holds the chat panel state.
type Model struct {
	Input  textinput.Model
	Width  int
	Height int

	lines []line
}

// New creates a chat model with an unfocused input line.
func New() Model {
	in := textinput.New()
	in.Placeholder = "say something kind..."
	in.CharLimit = 280
	in.Prompt = "> "
	return Model{Input: in, Height: 8}
}

// Add appends a chat line, trimming history past maxLines.
func (m *Model) Add(message, username string) {
	m.lines = append(m.lines, line{username: username, message: message})
	if len(m.lines) > maxLines {
		m.lines = m.lines[len(m.lines)-maxLines:]
	}
}

// View renders the chat log with the input line underneath.
func (m Model) View() string {
	header := theme.StyleHeader.Render("Chat")
	rows := []string{header}

	visible := m.Height
	if visible < 1 {
		visible = 1
	}
	start := 0
	if len(m.lines) > visible {
		start = len(m.lines) - visible
	}
	if len(m.lines) == 0 {
		rows = append(rows, theme.StyleDimmed.Render("no messages yet"))
	}
	for _, l := range m.lines[start:] {
		who := lipgloss.NewStyle().Foreground(theme.ColorCalm).Render(l.username)
		rows = append(rows, who+": "+l.message)
	}

	rows = append(rows, m.Input.View())

	return theme.StylePanel.Width(m.panelWidth()).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) panelWidth() int {
	if m.Width < 40 {
		return 40
	}
	return m.Width
}
