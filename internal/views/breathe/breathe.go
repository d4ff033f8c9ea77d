// Package breathe renders a guided-breathing overlay: a bubble that
// expands and contracts on a spring, paced for slow breaths.
package breathe

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/dost-app/tui/internal/theme"
)

const (
	fps         = 30
	phaseLength = 4 * time.Second

	minSize = 0.15
	maxSize = 1.0
)

// Phase is the current breathing instruction.
type Phase int

const (
	PhaseIn Phase = iota
	PhaseOut
)

// TickMsg advances the animation. It is namespaced to this view so the
// root model can route it.
type TickMsg time.Time

// Model holds the breathing animation state.
type Model struct {
	Width int

	spring  harmonica.Spring
	size    float64
	vel     float64
	phase   Phase
	elapsed time.Duration
}

// New creates a breathing model starting on an inhale.
func New() Model {
	return Model{
		spring: harmonica.NewSpring(harmonica.FPS(fps), 0.9, 1.0),
		size:   minSize,
		phase:  PhaseIn,
	}
}

// Tick returns the command that drives the animation.
func Tick() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Update advances the spring one frame and flips the phase on schedule.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(TickMsg); !ok {
		return m, nil
	}

	m.elapsed += time.Second / fps
	if m.elapsed >= phaseLength {
		m.elapsed = 0
		if m.phase == PhaseIn {
			m.phase = PhaseOut
		} else {
			m.phase = PhaseIn
		}
	}

	target := maxSize
	if m.phase == PhaseOut {
		target = minSize
	}
	m.size, m.vel = m.spring.Update(m.size, m.vel, target)

	return m, Tick()
}

// Phase returns the current breathing instruction.
func (m Model) Phase() Phase { return m.phase }

// View renders the bubble and its instruction.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}
	barMax := width - 10

	n := int(m.size * float64(barMax))
	if n < 1 {
		n = 1
	}
	if n > barMax {
		n = barMax
	}

	label := "breathe in"
	if m.phase == PhaseOut {
		label = "breathe out"
	}

	bubble := lipgloss.NewStyle().Foreground(theme.ColorCalm).
		Render(strings.Repeat("●", n))

	content := lipgloss.JoinVertical(lipgloss.Center,
		theme.StyleHeader.Render("Guided breathing"),
		"",
		bubble,
		"",
		theme.StyleDimmed.Render(label+"  (esc to close)"),
	)

	return theme.StylePanel.Width(width).Render(content)
}
