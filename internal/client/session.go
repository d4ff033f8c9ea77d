package client

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// connectFailedMsg is the fixed user-facing message delivered to OnError
// when a connection attempt fails.
const connectFailedMsg = "Failed to connect to game server"

// SessionCallbacks are the consumer's event hooks. The set registered last
// wins: callbacks are held in a single mutable slot read at dispatch time,
// so a consumer can swap them without re-subscribing.
type SessionCallbacks struct {
	// OnGameUpdate fires only when a game_update or game_state frame
	// carries state, status, and roster together. Partial frames still
	// mutate the derived view but do not fire this.
	OnGameUpdate func(state GameState, status GameStatus, players []PlayerInfo)
	// OnChatMessage fires when a chat frame carries both text and sender.
	OnChatMessage func(message, username string)
	// OnError fires for server error frames and failed connect attempts.
	OnError func(message string)
}

// SessionConfig configures a GameSession.
type SessionConfig struct {
	// AutoJoin issues a join_game command right after a room connect.
	AutoJoin bool
	// Callbacks is the initial callback set; see SetCallbacks.
	Callbacks SessionCallbacks
	// Logger receives session diagnostics.
	Logger zerolog.Logger
}

// GameSession binds a GameSocket's lifecycle and message stream to a
// synchronous, reactive view of one room: connected/connecting flags,
// latest game state, status, and roster. Only the session's own message
// handler and its own connect/disconnect actions write the view; consumers
// only read it.
type GameSession struct {
	sock     *GameSocket
	log      zerolog.Logger
	autoJoin bool

	cbMu sync.Mutex
	cbs  SessionCallbacks

	mu         sync.Mutex
	roomCode   string
	connected  bool
	connecting bool
	players    []PlayerInfo
	gameState  GameState
	status     GameStatus

	unsubscribe func()
}

// NewGameSession creates a session view over sock and registers its single
// message handler. Call Close to release it.
func NewGameSession(sock *GameSocket, cfg SessionConfig) *GameSession {
	g := &GameSession{
		sock:     sock,
		log:      cfg.Logger,
		autoJoin: cfg.AutoJoin,
		cbs:      cfg.Callbacks,
	}
	g.unsubscribe = sock.OnMessage(g.handleMessage)
	return g
}

// SetCallbacks replaces the callback set. Dispatch always reads the
// current set, never one captured at subscription time.
func (g *GameSession) SetCallbacks(cbs SessionCallbacks) {
	g.cbMu.Lock()
	g.cbs = cbs
	g.cbMu.Unlock()
}

func (g *GameSession) callbacks() SessionCallbacks {
	g.cbMu.Lock()
	defer g.cbMu.Unlock()
	return g.cbs
}

// SetRoom switches the session to roomCode, tearing down any session bound
// to the previous room first. An empty roomCode means "no active session":
// no connection is attempted and connected becomes false. With a non-empty
// roomCode an attempt is made immediately; on failure OnError fires and
// the returned error describes the cause.
func (g *GameSession) SetRoom(ctx context.Context, roomCode string) error {
	g.mu.Lock()
	prev := g.roomCode
	g.roomCode = roomCode
	g.mu.Unlock()

	if prev != "" && prev != roomCode {
		g.teardownRoom(prev)
	}
	if roomCode == "" {
		g.mu.Lock()
		g.connected = false
		g.mu.Unlock()
		return nil
	}
	return g.attemptConnect(ctx, roomCode, g.autoJoin)
}

// teardownRoom disconnects the underlying socket only if it is still bound
// to prev; if some other concern has already moved it to a new room, the
// new session is left alone.
func (g *GameSession) teardownRoom(prev string) {
	if g.sock.RoomCode() != prev {
		return
	}
	g.sock.Disconnect()
	g.mu.Lock()
	g.connected = false
	g.mu.Unlock()
}

// Connect retries the connection to the current room on demand, e.g. from
// a manual retry action. It does not auto-join. A session with no room is
// a no-op.
func (g *GameSession) Connect(ctx context.Context) error {
	g.mu.Lock()
	roomCode := g.roomCode
	g.mu.Unlock()
	if roomCode == "" {
		return nil
	}
	return g.attemptConnect(ctx, roomCode, false)
}

func (g *GameSession) attemptConnect(ctx context.Context, roomCode string, join bool) error {
	g.mu.Lock()
	g.connecting = true
	g.mu.Unlock()

	err := g.sock.Connect(ctx, roomCode)

	g.mu.Lock()
	g.connecting = false
	g.connected = err == nil
	g.mu.Unlock()

	if err != nil {
		g.log.Warn().Err(err).Str("room", roomCode).Msg("connection failed")
		if cb := g.callbacks().OnError; cb != nil {
			cb(connectFailedMsg)
		}
		return err
	}
	if join {
		g.sock.JoinGame()
	}
	return nil
}

// Disconnect tears down the session intentionally.
func (g *GameSession) Disconnect() {
	g.sock.Disconnect()
	g.mu.Lock()
	g.connected = false
	g.mu.Unlock()
}

// Close removes the message handler and tears down any live session.
func (g *GameSession) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
		g.unsubscribe = nil
	}
	g.Disconnect()
}

// MakeMove submits a move. A no-op with a logged diagnostic when the
// session is not connected; callers need not check connectivity.
func (g *GameSession) MakeMove(state GameState) {
	if !g.Connected() {
		g.log.Warn().Msg("make_move ignored: not connected")
		return
	}
	g.sock.MakeMove(state)
}

// SendChat sends a chat line. A silent no-op when not connected.
func (g *GameSession) SendChat(message string) {
	if !g.Connected() {
		return
	}
	g.sock.SendChatMessage(message)
}

// RequestState asks for a fresh game state. A silent no-op when not connected.
func (g *GameSession) RequestState() {
	if !g.Connected() {
		return
	}
	g.sock.RequestState()
}

// JoinGame joins the room as a player. A silent no-op when not connected.
func (g *GameSession) JoinGame() {
	if !g.Connected() {
		return
	}
	g.sock.JoinGame()
}

// Connected reports whether the session considers itself connected.
func (g *GameSession) Connected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected
}

// Connecting reports whether a connection attempt is in flight.
func (g *GameSession) Connecting() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connecting
}

// RoomCode returns the room this session is bound to, or "".
func (g *GameSession) RoomCode() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.roomCode
}

// Players returns the latest roster snapshot.
func (g *GameSession) Players() []PlayerInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.players
}

// GameState returns the latest game-state blob, or nil.
func (g *GameSession) GameState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gameState
}

// Status returns the latest room status, or "".
func (g *GameSession) Status() GameStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// handleMessage updates the derived view and then invokes the consumer's
// callback, so a callback always observes state consistent with its
// triggering message.
func (g *GameSession) handleMessage(msg Message) {
	switch msg.Type {
	case MsgGameUpdate, MsgGameState:
		g.mu.Lock()
		if msg.GameState != nil {
			g.gameState = msg.GameState
		}
		if msg.Status != "" {
			g.status = msg.Status
		}
		if msg.Players != nil {
			g.players = msg.Players
		}
		g.mu.Unlock()

		if msg.GameState != nil && msg.Status != "" && msg.Players != nil {
			if cb := g.callbacks().OnGameUpdate; cb != nil {
				cb(msg.GameState, msg.Status, msg.Players)
			}
		}

	case MsgChatMessage:
		if msg.Message != "" && msg.Username != "" {
			if cb := g.callbacks().OnChatMessage; cb != nil {
				cb(msg.Message, msg.Username)
			}
		}

	case MsgError:
		if msg.Message != "" {
			if cb := g.callbacks().OnError; cb != nil {
				cb(msg.Message)
			}
		}
	}
}
