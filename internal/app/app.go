// Package app holds the root Bubble Tea model for the dost TUI.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dost-app/tui/internal/client"
	"github.com/dost-app/tui/internal/theme"
	"github.com/dost-app/tui/internal/views/breathe"
	"github.com/dost-app/tui/internal/views/chat"
	"github.com/dost-app/tui/internal/views/roster"
	"github.com/dost-app/tui/internal/views/status"
	"github.com/rs/zerolog"
)

const helpMarkdown = `# dost-tui

A terminal companion for dost multiplayer rooms.

## Keys

| key | action |
|-----|--------|
| t   | type a chat message |
| j   | join the game as a player |
| s   | re-request game state |
| r   | retry the connection |
| b   | guided breathing exercise |
| L   | leave the room |
| q   | quit |
`

// screen identifies which top-level surface is active.
type screen int

const (
	screenJoin screen = iota
	screenGame
)

// overlay identifies which modal is active.
type overlay int

const (
	overlayNone overlay = iota
	overlayBreathe
	overlayHelp
)

// --- session event messages ---

// gameUpdateMsg delivers a complete game update from the session.
type gameUpdateMsg struct {
	state   client.GameState
	status  client.GameStatus
	players []client.PlayerInfo
}

// chatMsg delivers one chat line.
type chatMsg struct {
	message  string
	username string
}

// errMsg delivers a server or connection error string.
type errMsg struct{ text string }

// connectResultMsg reports the outcome of a connect attempt.
type connectResultMsg struct {
	room string
	err  error
}

// Model is the root Bubble Tea model.
type Model struct {
	session *client.GameSession
	log     zerolog.Logger

	keys   KeyMap
	width  int
	height int

	screen  screen
	overlay overlay
	typing  bool

	roomInput textinput.Model

	statusBar status.Model
	roster    roster.Model
	chatPanel chat.Model
	breathe   breathe.Model

	events  chan tea.Msg
	errLine string
}

// New creates the root model around an already-constructed session. The
// session's callbacks are pointed at this model's event channel; the
// initial room may be empty, in which case the join screen is shown first.
func New(session *client.GameSession, initialRoom string, log zerolog.Logger) Model {
	roomInput := textinput.New()
	roomInput.Placeholder = "room code"
	roomInput.CharLimit = 8
	roomInput.Prompt = "> "
	roomInput.Focus()
	roomInput.SetValue(initialRoom)

	m := Model{
		session:   session,
		log:       log,
		keys:      DefaultKeyMap(),
		roomInput: roomInput,
		statusBar: status.New(),
		roster:    roster.New(),
		chatPanel: chat.New(),
		breathe:   breathe.New(),
		events:    make(chan tea.Msg, 64),
	}

	events := m.events
	session.SetCallbacks(client.SessionCallbacks{
		OnGameUpdate: func(state client.GameState, st client.GameStatus, players []client.PlayerInfo) {
			pushEvent(events, gameUpdateMsg{state: state, status: st, players: players})
		},
		OnChatMessage: func(message, username string) {
			pushEvent(events, chatMsg{message: message, username: username})
		},
		OnError: func(message string) {
			pushEvent(events, errMsg{text: message})
		},
	})

	return m
}

// pushEvent forwards a session callback into the Bubble Tea loop without
// ever blocking the socket's read goroutine.
func pushEvent(events chan<- tea.Msg, msg tea.Msg) {
	select {
	case events <- msg:
	default:
	}
}

// Init connects to the initial room, if one was given.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForEvent()}
	if room := m.roomInput.Value(); room != "" {
		cmds = append(cmds, m.connectCmd(room))
	}
	return tea.Batch(cmds...)
}

// waitForEvent relays the next session event into the update loop.
func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}

// connectCmd switches the session to room off the UI goroutine.
func (m Model) connectCmd(room string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		err := session.SetRoom(context.Background(), room)
		return connectResultMsg{room: room, err: err}
	}
}

// retryCmd repeats the connection attempt for the current room.
func (m Model) retryCmd() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		err := session.Connect(context.Background())
		return connectResultMsg{room: session.RoomCode(), err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.roster.Width = msg.Width / 3
		m.chatPanel.Width = msg.Width - msg.Width/3 - 2
		m.breathe.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case breathe.TickMsg:
		if m.overlay != overlayBreathe {
			return m, nil
		}
		var cmd tea.Cmd
		m.breathe, cmd = m.breathe.Update(msg)
		return m, cmd

	case connectResultMsg:
		m.syncSessionState()
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Str("room", msg.room).Msg("connect attempt failed")
			m.errLine = fmt.Sprintf("could not reach room %s", msg.room)
			return m, nil
		}
		m.errLine = ""
		m.screen = screenGame
		return m, nil

	case gameUpdateMsg:
		m.syncSessionState()
		return m, m.waitForEvent()

	case chatMsg:
		m.chatPanel.Add(msg.message, msg.username)
		return m, m.waitForEvent()

	case errMsg:
		m.errLine = msg.text
		m.syncSessionState()
		return m, m.waitForEvent()
	}

	return m, nil
}

// syncSessionState re-reads the session's derived view into the views.
func (m *Model) syncSessionState() {
	m.statusBar.Connected = m.session.Connected()
	m.statusBar.Connecting = m.session.Connecting()
	m.statusBar.RoomCode = m.session.RoomCode()
	m.statusBar.GameStatus = m.session.Status()

	players := m.session.Players()
	m.statusBar.Players = len(players)
	m.roster.SetPlayers(players)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.overlay != overlayNone {
		if key.Matches(msg, m.keys.Escape) || key.Matches(msg, m.keys.Quit) {
			m.overlay = overlayNone
		}
		return m, nil
	}

	if m.screen == screenJoin {
		return m.handleJoinKey(msg)
	}

	if m.typing {
		switch {
		case key.Matches(msg, m.keys.Enter):
			text := m.chatPanel.Input.Value()
			if text != "" {
				m.session.SendChat(text)
			}
			m.chatPanel.Input.Reset()
			m.chatPanel.Input.Blur()
			m.typing = false
			return m, nil
		case key.Matches(msg, m.keys.Escape):
			m.chatPanel.Input.Blur()
			m.typing = false
			return m, nil
		}
		var cmd tea.Cmd
		m.chatPanel.Input, cmd = m.chatPanel.Input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.session.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Chat):
		m.typing = true
		return m, m.chatPanel.Input.Focus()

	case key.Matches(msg, m.keys.Retry):
		return m, m.retryCmd()

	case key.Matches(msg, m.keys.Sync):
		m.session.RequestState()
		return m, nil

	case key.Matches(msg, m.keys.Join):
		m.session.JoinGame()
		return m, nil

	case key.Matches(msg, m.keys.Breathe):
		m.overlay = overlayBreathe
		return m, breathe.Tick()

	case key.Matches(msg, m.keys.Help):
		m.overlay = overlayHelp
		return m, nil

	case key.Matches(msg, m.keys.Leave):
		m.session.SetRoom(context.Background(), "")
		m.screen = screenJoin
		m.roomInput.Reset()
		m.roomInput.Focus()
		m.syncSessionState()
		return m, nil
	}

	return m, nil
}

func (m Model) handleJoinKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.session.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Enter):
		room := m.roomInput.Value()
		if room == "" {
			return m, nil
		}
		m.errLine = ""
		return m, m.connectCmd(room)
	}

	var cmd tea.Cmd
	m.roomInput, cmd = m.roomInput.Update(msg)
	return m, cmd
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	switch m.overlay {
	case overlayBreathe:
		return m.breathe.View()
	case overlayHelp:
		return m.renderHelp()
	}

	if m.screen == screenJoin {
		return m.renderJoin()
	}
	return m.renderGame()
}

func (m Model) renderJoin() string {
	lines := []string{
		theme.StyleHeader.Render("Join a game room"),
		"",
		m.roomInput.View(),
		"",
		theme.StyleDimmed.Render("enter:connect  q:quit"),
	}
	if m.errLine != "" {
		lines = append(lines, "",
			lipgloss.NewStyle().Foreground(theme.ColorDanger).Render(m.errLine))
	}
	return theme.StylePanel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderGame() string {
	panels := lipgloss.JoinHorizontal(lipgloss.Top, m.roster.View(), m.chatPanel.View())

	sections := []string{
		m.statusBar.View(),
		panels,
		m.renderGameState(),
		theme.StyleDimmed.Render("  t:chat  j:join  s:sync  r:retry  b:breathe  L:leave  ?:help  q:quit"),
	}
	if m.errLine != "" {
		sections = append(sections,
			lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("  "+m.errLine))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderGameState shows the opaque game-state blob as sorted key: value
// lines. The client never interprets the blob; it only displays it.
func (m Model) renderGameState() string {
	state := m.session.GameState()
	if state == nil {
		return theme.StyleDimmed.Render("  no game state yet")
	}

	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := []string{theme.StyleHeader.Render("Game state")}
	for _, k := range keys {
		v, err := json.Marshal(state[k])
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", k, string(v)))
	}
	return theme.StylePanel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderHelp() string {
	out, err := glamour.Render(helpMarkdown, "dark")
	if err != nil {
		out = helpMarkdown
	}
	return out + theme.StyleDimmed.Render("  esc:close")
}
