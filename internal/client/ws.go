package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	defaultReconnectBaseDelay   = 1 * time.Second
	defaultMaxReconnectAttempts = 5
	defaultHandshakeTimeout     = 10 * time.Second
	writeTimeout                = 10 * time.Second

	// closeReason is sent with the normal-closure code on intentional
	// disconnects so the far end can tell them from abnormal loss.
	closeReason = "Client disconnecting"
)

var (
	// ErrAlreadyConnecting is returned by Connect while a handshake for
	// another Connect call is still in flight. Only one connection attempt
	// may be outstanding at a time.
	ErrAlreadyConnecting = errors.New("already connecting")

	// ErrSessionReplaced is returned when a handshake completes after the
	// session it belongs to has been torn down or replaced.
	ErrSessionReplaced = errors.New("session replaced")

	// ErrReconnectExhausted is reported through the state observer when all
	// automatic reconnection attempts have failed.
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
)

// State is the connection lifecycle state of a GameSocket.
type State int

const (
	StateIdle       State = iota // no session
	StateConnecting              // handshake in flight
	StateOpen                    // session established
	StateClosed                  // transport lost, possibly retrying
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// StateChange is passed to the observer registered with OnStateChange.
// Err is non-nil when the transition was caused by a failure; it is
// ErrReconnectExhausted when automatic reconnection has given up.
type StateChange struct {
	State   State
	Room    string
	Attempt int
	Err     error
}

// MessageHandler receives every inbound message for the life of the
// GameSocket, across reconnects. Handlers run on the read goroutine in
// registration order; a panicking handler is logged and does not stop
// dispatch to the others.
type MessageHandler func(Message)

// TokenSource supplies the bearer token for the connection handshake. It is
// consulted once per attempt, so a token refreshed between attempts is
// honored. An empty return means an anonymous connection.
type TokenSource func() string

// Config holds settings for a GameSocket.
type Config struct {
	// ServerURL is the backend base URL, e.g. "http://127.0.0.1:8000" or
	// "wss://dost.example.com". http(s) schemes are mapped to ws(s).
	ServerURL string
	// Token supplies the bearer token appended to the handshake URL.
	// Nil means always anonymous.
	Token TokenSource
	// ReconnectBaseDelay is the backoff unit; attempt n waits n*base.
	ReconnectBaseDelay time.Duration
	// MaxReconnectAttempts bounds automatic reconnection after abnormal
	// closure. Handshake failures from explicit Connect calls never retry.
	MaxReconnectAttempts int
	// HandshakeTimeout bounds the WebSocket handshake.
	HandshakeTimeout time.Duration
	// Logger receives connection diagnostics.
	Logger zerolog.Logger
}

// DefaultConfig returns a Config with production defaults for serverURL.
func DefaultConfig(serverURL string) Config {
	return Config{
		ServerURL:            serverURL,
		ReconnectBaseDelay:   defaultReconnectBaseDelay,
		MaxReconnectAttempts: defaultMaxReconnectAttempts,
		HandshakeTimeout:     defaultHandshakeTimeout,
		Logger:               zerolog.Nop(),
	}
}

type handlerEntry struct {
	id int
	fn MessageHandler
}

// GameSocket manages a single WebSocket session to a room-scoped game
// endpoint. At most one session is live or pending at any time; connecting
// to a different room tears down the previous session first. Unexpected
// closure after a successful open triggers bounded linear-backoff
// reconnection to the same room.
type GameSocket struct {
	cfg Config
	log zerolog.Logger

	mu       sync.Mutex
	writeMu  sync.Mutex // serialises all conn writes (commands, close frames)
	conn     *websocket.Conn
	state    State
	roomCode string
	attempts int
	gen      uint64 // session generation; stale timers and reads check it
	handlers []handlerEntry
	nextID   int
	onState  func(StateChange)
}

// NewGameSocket creates a disconnected GameSocket with the given config.
// Zero config fields fall back to the DefaultConfig values.
func NewGameSocket(cfg Config) *GameSocket {
	if cfg.ReconnectBaseDelay <= 0 {
		cfg.ReconnectBaseDelay = defaultReconnectBaseDelay
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = defaultMaxReconnectAttempts
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	return &GameSocket{cfg: cfg, log: cfg.Logger}
}

// Connect establishes a session to the given room. It is a no-op when
// already open for the same room, replaces the session when open for a
// different room, and fails with ErrAlreadyConnecting while another
// handshake is in flight. A handshake failure leaves the socket idle and is
// never retried automatically; only abnormal closure after a successful
// open triggers reconnection.
func (s *GameSocket) Connect(ctx context.Context, roomCode string) error {
	var old *websocket.Conn

	s.mu.Lock()
	switch s.state {
	case StateOpen:
		if s.roomCode == roomCode {
			s.mu.Unlock()
			return nil
		}
		old = s.conn
		s.conn = nil
		s.gen++
		s.attempts = 0
	case StateConnecting:
		s.mu.Unlock()
		return ErrAlreadyConnecting
	}
	s.state = StateConnecting
	s.roomCode = roomCode
	gen := s.gen
	s.mu.Unlock()

	if old != nil {
		s.closeConn(old)
	}
	s.notify(StateChange{State: StateConnecting, Room: roomCode})

	if err := s.dial(ctx, roomCode, gen); err != nil {
		s.mu.Lock()
		if s.gen == gen && s.state == StateConnecting {
			s.state = StateIdle
		}
		s.mu.Unlock()
		s.notify(StateChange{State: StateIdle, Room: roomCode, Err: err})
		return err
	}
	return nil
}

// dial performs one handshake attempt for roomCode and installs the
// resulting connection, unless the session was torn down or replaced while
// the handshake was in flight (checked via gen).
func (s *GameSocket) dial(ctx context.Context, roomCode string, gen uint64) error {
	var token string
	if s.cfg.Token != nil {
		token = s.cfg.Token()
	}
	target, err := s.gameURL(roomCode, token)
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: s.cfg.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		s.log.Warn().Err(err).Str("room", roomCode).Msg("game socket dial failed")
		return fmt.Errorf("dial %s: %w", roomCode, err)
	}

	s.mu.Lock()
	if s.gen != gen || s.roomCode != roomCode {
		s.mu.Unlock()
		conn.Close()
		return ErrSessionReplaced
	}
	s.gen++
	liveGen := s.gen
	s.conn = conn
	s.state = StateOpen
	s.attempts = 0
	s.mu.Unlock()

	s.log.Info().Str("room", roomCode).Msg("game socket connected")
	s.notify(StateChange{State: StateOpen, Room: roomCode})
	go s.readLoop(conn, liveGen, roomCode)
	return nil
}

// readLoop reads frames until the connection dies, dispatching each parsed
// message to all registered handlers in order. On abnormal closure it
// hands off to the reconnect scheduler.
func (s *GameSocket) readLoop(conn *websocket.Conn, gen uint64, roomCode string) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()

			s.mu.Lock()
			if s.gen != gen {
				// Torn down or replaced; nothing left to do.
				s.mu.Unlock()
				return
			}
			s.conn = nil
			s.state = StateClosed
			s.mu.Unlock()

			s.log.Info().Err(err).Str("room", roomCode).Msg("game socket closed")
			s.notify(StateChange{State: StateClosed, Room: roomCode, Err: err})

			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				// Clean close from the far end; leave reconnection to the caller.
				return
			}
			s.scheduleReconnect(gen, roomCode)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warn().Err(err).Msg("dropping malformed frame")
			continue
		}
		s.dispatch(msg)
	}
}

// scheduleReconnect arms the next linear-backoff attempt for the session
// identified by gen. The room and generation are re-checked when the timer
// fires, so a Disconnect or room switch in the meantime voids the attempt.
func (s *GameSocket) scheduleReconnect(gen uint64, roomCode string) {
	s.mu.Lock()
	if s.gen != gen || s.roomCode != roomCode || s.state != StateClosed {
		s.mu.Unlock()
		return
	}
	if s.attempts >= s.cfg.MaxReconnectAttempts {
		s.mu.Unlock()
		s.log.Warn().Str("room", roomCode).Int("attempts", s.cfg.MaxReconnectAttempts).
			Msg("giving up on reconnect")
		s.notify(StateChange{State: StateClosed, Room: roomCode, Attempt: s.cfg.MaxReconnectAttempts, Err: ErrReconnectExhausted})
		return
	}
	s.attempts++
	attempt := s.attempts
	s.mu.Unlock()

	delay := s.cfg.ReconnectBaseDelay * time.Duration(attempt)
	s.log.Info().Str("room", roomCode).Int("attempt", attempt).Dur("delay", delay).
		Msg("scheduling reconnect")

	time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.gen != gen || s.roomCode != roomCode || s.state != StateClosed {
			s.mu.Unlock()
			return
		}
		s.state = StateConnecting
		s.mu.Unlock()

		s.notify(StateChange{State: StateConnecting, Room: roomCode, Attempt: attempt})
		if err := s.dial(context.Background(), roomCode, gen); err != nil {
			s.mu.Lock()
			if s.gen == gen && s.state == StateConnecting {
				s.state = StateClosed
			}
			s.mu.Unlock()
			// A failed redial counts as another abnormal closure.
			s.scheduleReconnect(gen, roomCode)
		}
	})
}

// Disconnect requests a normal, intentional closure. It clears the room
// code and attempt counter, so any reconnection timer that later fires
// finds nothing to act on. Safe to call when already idle.
func (s *GameSocket) Disconnect() {
	s.mu.Lock()
	conn := s.conn
	prev := s.state
	s.conn = nil
	s.roomCode = ""
	s.attempts = 0
	s.gen++
	s.state = StateIdle
	s.mu.Unlock()

	if conn != nil {
		s.closeConn(conn)
	}
	if prev != StateIdle {
		s.notify(StateChange{State: StateIdle})
	}
}

// closeConn sends a normal-closure frame and closes the connection.
func (s *GameSocket) closeConn(conn *websocket.Conn) {
	s.writeMu.Lock()
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, closeReason),
		time.Now().Add(writeTimeout))
	s.writeMu.Unlock()
	conn.Close()
}

// Send serialises and transmits a command immediately if the session is
// open, and logs and drops it otherwise. No queueing: a lost command is
// better surfaced by the UI re-requesting state than by buffering stale
// actions.
func (s *GameSocket) Send(cmd Command) {
	s.mu.Lock()
	conn := s.conn
	open := s.state == StateOpen
	s.mu.Unlock()

	if !open || conn == nil {
		s.log.Warn().Str("type", string(cmd.Type)).Msg("dropping command: not connected")
		return
	}

	s.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err := conn.WriteJSON(cmd)
	s.writeMu.Unlock()
	if err != nil {
		s.log.Warn().Err(err).Str("type", string(cmd.Type)).Msg("command write failed")
	}
}

// JoinGame announces this client as a player in the current room.
func (s *GameSocket) JoinGame() {
	s.Send(Command{Type: CmdJoinGame})
}

// MakeMove submits the caller's view of the game state as a move.
func (s *GameSocket) MakeMove(state GameState) {
	s.Send(Command{Type: CmdMakeMove, GameState: state})
}

// RequestState asks the server to re-send the current game state.
func (s *GameSocket) RequestState() {
	s.Send(Command{Type: CmdGetState})
}

// SendChatMessage sends a chat line to the room.
func (s *GameSocket) SendChatMessage(message string) {
	s.Send(Command{Type: CmdChatMessage, Message: message})
}

// OnMessage registers a handler for every subsequent inbound message for
// the life of the socket, surviving reconnects. It returns a function that
// removes the registration.
func (s *GameSocket) OnMessage(fn MessageHandler) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.handlers = append(s.handlers, handlerEntry{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, h := range s.handlers {
			if h.id == id {
				s.handlers = append(s.handlers[:i], s.handlers[i+1:]...)
				return
			}
		}
	}
}

// OnStateChange registers the observer for lifecycle transitions. Only one
// observer is active; repeated calls replace it. Pass nil to clear.
func (s *GameSocket) OnStateChange(fn func(StateChange)) {
	s.mu.Lock()
	s.onState = fn
	s.mu.Unlock()
}

// IsConnected reports whether the session is open.
func (s *GameSocket) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateOpen
}

// State returns the current lifecycle state.
func (s *GameSocket) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RoomCode returns the room of the current or most recent session, or ""
// after a disconnect.
func (s *GameSocket) RoomCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomCode
}

func (s *GameSocket) dispatch(msg Message) {
	s.mu.Lock()
	handlers := make([]handlerEntry, len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.Unlock()

	for _, h := range handlers {
		s.invoke(h, msg)
	}
}

// invoke runs one handler, isolating panics so one failing handler cannot
// starve the others or kill the read loop.
func (s *GameSocket) invoke(h handlerEntry, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Int("handler", h.id).Msg("message handler panicked")
		}
	}()
	h.fn(msg)
}

func (s *GameSocket) notify(change StateChange) {
	s.mu.Lock()
	fn := s.onState
	s.mu.Unlock()
	if fn != nil {
		fn(change)
	}
}

// gameURL builds the room-scoped endpoint URL, mapping http(s) schemes to
// ws(s) and appending the bearer token as a query parameter when present.
func (s *GameSocket) gameURL(roomCode, token string) (string, error) {
	u, err := url.Parse(s.cfg.ServerURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch {
	case u.Scheme == "http":
		u.Scheme = "ws"
	case u.Scheme == "https":
		u.Scheme = "wss"
	case strings.HasPrefix(u.Scheme, "ws"):
		// already a websocket scheme
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = "/ws/game/" + roomCode + "/"
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
