package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gameServer is an in-process WebSocket endpoint standing in for the dost
// backend. It records handshakes, tokens, inbound commands, and the close
// codes clients send.
type gameServer struct {
	*httptest.Server
	upgrader websocket.Upgrader

	hits    int32
	opened  int32
	reject  int32
	gate    chan struct{}
	inbound chan Command
	closed  chan int

	mu     sync.Mutex
	conns  []*websocket.Conn
	tokens []string
}

func newGameServer(t *testing.T) *gameServer {
	t.Helper()
	gs := &gameServer{
		inbound: make(chan Command, 16),
		closed:  make(chan int, 16),
	}
	gs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&gs.hits, 1)
		gs.mu.Lock()
		gs.tokens = append(gs.tokens, r.URL.Query().Get("token"))
		gs.mu.Unlock()

		if atomic.LoadInt32(&gs.reject) != 0 {
			http.Error(w, "room unavailable", http.StatusServiceUnavailable)
			return
		}
		if gs.gate != nil {
			<-gs.gate
		}

		conn, err := gs.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		atomic.AddInt32(&gs.opened, 1)
		gs.mu.Lock()
		gs.conns = append(gs.conns, conn)
		gs.mu.Unlock()

		go func() {
			for {
				var cmd Command
				if err := conn.ReadJSON(&cmd); err != nil {
					if ce, ok := err.(*websocket.CloseError); ok {
						gs.closed <- ce.Code
					}
					return
				}
				gs.inbound <- cmd
			}
		}()
	}))
	t.Cleanup(func() {
		gs.closeAll()
		gs.Server.Close()
	})
	return gs
}

func (gs *gameServer) handshakes() int { return int(atomic.LoadInt32(&gs.hits)) }

func (gs *gameServer) sessions() int { return int(atomic.LoadInt32(&gs.opened)) }

func (gs *gameServer) setReject(v bool) {
	var n int32
	if v {
		n = 1
	}
	atomic.StoreInt32(&gs.reject, n)
}

// conn returns the i-th accepted connection.
func (gs *gameServer) conn(i int) *websocket.Conn {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.conns[i]
}

// send pushes a JSON frame to the most recent connection.
func (gs *gameServer) send(t *testing.T, v any) {
	t.Helper()
	gs.mu.Lock()
	conn := gs.conns[len(gs.conns)-1]
	gs.mu.Unlock()
	require.NoError(t, conn.WriteJSON(v))
}

// sendRaw pushes a raw text frame to the most recent connection.
func (gs *gameServer) sendRaw(t *testing.T, data string) {
	t.Helper()
	gs.mu.Lock()
	conn := gs.conns[len(gs.conns)-1]
	gs.mu.Unlock()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(data)))
}

// dropLast closes the most recent connection without a close frame,
// simulating abnormal loss.
func (gs *gameServer) dropLast() {
	gs.mu.Lock()
	conn := gs.conns[len(gs.conns)-1]
	gs.mu.Unlock()
	conn.Close()
}

func (gs *gameServer) closeAll() {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	for _, c := range gs.conns {
		c.Close()
	}
}

func (gs *gameServer) token(i int) string {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.tokens[i]
}

// testSocket builds a GameSocket aimed at gs with fast reconnect timing.
func testSocket(t *testing.T, gs *gameServer, opts ...func(*Config)) *GameSocket {
	t.Helper()
	cfg := DefaultConfig(gs.URL)
	cfg.ReconnectBaseDelay = 10 * time.Millisecond
	cfg.HandshakeTimeout = 2 * time.Second
	for _, o := range opts {
		o(&cfg)
	}
	s := NewGameSocket(cfg)
	t.Cleanup(s.Disconnect)
	return s
}

// waitFor polls cond until it holds or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func TestConnectHappyPath(t *testing.T) {
	gs := newGameServer(t)
	s := testSocket(t, gs)

	require.NoError(t, s.Connect(context.Background(), "ABCD"))
	assert.True(t, s.IsConnected())
	assert.Equal(t, "ABCD", s.RoomCode())
	assert.Equal(t, StateOpen, s.State())
	assert.Equal(t, 1, gs.sessions())
}

func TestConnectSameRoomIdempotent(t *testing.T) {
	gs := newGameServer(t)
	s := testSocket(t, gs)

	require.NoError(t, s.Connect(context.Background(), "ABCD"))
	require.NoError(t, s.Connect(context.Background(), "ABCD"))

	assert.Equal(t, 1, gs.handshakes(), "second connect to the same room must not redial")
}

func TestConnectReplacesDifferentRoom(t *testing.T) {
	gs := newGameServer(t)
	s := testSocket(t, gs)

	require.NoError(t, s.Connect(context.Background(), "AAAA"))
	require.NoError(t, s.Connect(context.Background(), "BBBB"))

	assert.Equal(t, "BBBB", s.RoomCode())
	assert.Equal(t, 2, gs.sessions())

	select {
	case code := <-gs.closed:
		assert.Equal(t, websocket.CloseNormalClosure, code,
			"old session must be closed with the normal-closure code")
	case <-time.After(time.Second):
		t.Fatal("old session was never closed")
	}
}

func TestConnectWhileConnecting(t *testing.T) {
	gs := newGameServer(t)
	gs.gate = make(chan struct{})
	s := testSocket(t, gs)

	done := make(chan error, 1)
	go func() { done <- s.Connect(context.Background(), "ABCD") }()

	waitFor(t, time.Second, func() bool { return s.State() == StateConnecting }, "connecting state")
	assert.ErrorIs(t, s.Connect(context.Background(), "ABCD"), ErrAlreadyConnecting)

	close(gs.gate)
	require.NoError(t, <-done)
	assert.True(t, s.IsConnected())
}

func TestConnectHandshakeFailureNoRetry(t *testing.T) {
	gs := newGameServer(t)
	gs.setReject(true)
	s := testSocket(t, gs)

	err := s.Connect(context.Background(), "ABCD")
	require.Error(t, err)
	assert.Equal(t, StateIdle, s.State())

	// A refused handshake must not be hammered by the backoff loop.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, gs.handshakes())
}

func TestReconnectAfterAbnormalClose(t *testing.T) {
	gs := newGameServer(t)
	s := testSocket(t, gs)

	require.NoError(t, s.Connect(context.Background(), "ABCD"))
	gs.dropLast()

	waitFor(t, time.Second, func() bool { return gs.sessions() == 2 && s.IsConnected() }, "reconnect")
	assert.Equal(t, "ABCD", s.RoomCode())
}

func TestReconnectGivesUpAfterMaxAttempts(t *testing.T) {
	gs := newGameServer(t)

	var exhausted atomic.Bool
	s := testSocket(t, gs, func(c *Config) { c.MaxReconnectAttempts = 3 })
	s.OnStateChange(func(ch StateChange) {
		if ch.Err == ErrReconnectExhausted {
			exhausted.Store(true)
		}
	})

	require.NoError(t, s.Connect(context.Background(), "ABCD"))

	// Kill the session and refuse every redial.
	gs.setReject(true)
	gs.dropLast()

	waitFor(t, 2*time.Second, exhausted.Load, "exhaustion signal")
	assert.Equal(t, 1+3, gs.handshakes(), "one open plus exactly max redial attempts")
	assert.False(t, s.IsConnected())

	// No further attempts after giving up.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1+3, gs.handshakes())
}

func TestDisconnectSuppressesReconnect(t *testing.T) {
	gs := newGameServer(t)
	s := testSocket(t, gs)

	require.NoError(t, s.Connect(context.Background(), "ABCD"))
	s.Disconnect()

	assert.Equal(t, "", s.RoomCode())
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, gs.handshakes(), "intentional disconnect must not trigger reconnection")
}

func TestDisconnectDuringBackoffWindow(t *testing.T) {
	gs := newGameServer(t)
	s := testSocket(t, gs, func(c *Config) { c.ReconnectBaseDelay = 50 * time.Millisecond })

	require.NoError(t, s.Connect(context.Background(), "ABCD"))
	gs.dropLast()

	waitFor(t, time.Second, func() bool { return s.State() == StateClosed }, "closed state")
	s.Disconnect()

	// The armed timer fires into a cleared room and must no-op.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, gs.handshakes())
}

func TestTokenReadPerAttempt(t *testing.T) {
	gs := newGameServer(t)

	var token atomic.Value
	token.Store("tok-1")
	s := testSocket(t, gs, func(c *Config) {
		c.Token = func() string { return token.Load().(string) }
	})

	require.NoError(t, s.Connect(context.Background(), "ABCD"))
	token.Store("tok-2")
	gs.dropLast()

	waitFor(t, time.Second, func() bool { return gs.sessions() == 2 }, "reconnect")
	assert.Equal(t, "tok-1", gs.token(0))
	assert.Equal(t, "tok-2", gs.token(1), "a token refreshed between attempts must be honored")
}

func TestHandlerIsolation(t *testing.T) {
	gs := newGameServer(t)
	s := testSocket(t, gs)

	got := make(chan Message, 1)
	s.OnMessage(func(Message) { panic("boom") })
	s.OnMessage(func(m Message) { got <- m })

	require.NoError(t, s.Connect(context.Background(), "ABCD"))
	gs.send(t, Message{Type: MsgChatMessage, Message: "hi", Username: "alice"})

	select {
	case m := <-got:
		assert.Equal(t, "hi", m.Message)
	case <-time.After(time.Second):
		t.Fatal("second handler never ran after first panicked")
	}
}

func TestHandlerUnsubscribe(t *testing.T) {
	gs := newGameServer(t)
	s := testSocket(t, gs)

	first := make(chan Message, 4)
	second := make(chan Message, 4)
	off := s.OnMessage(func(m Message) { first <- m })
	s.OnMessage(func(m Message) { second <- m })
	off()

	require.NoError(t, s.Connect(context.Background(), "ABCD"))
	gs.send(t, Message{Type: MsgError, Message: "nope"})

	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatal("remaining handler never ran")
	}
	select {
	case <-first:
		t.Fatal("unsubscribed handler still ran")
	default:
	}
}

func TestMalformedFrameDropped(t *testing.T) {
	gs := newGameServer(t)
	s := testSocket(t, gs)

	got := make(chan Message, 1)
	s.OnMessage(func(m Message) { got <- m })

	require.NoError(t, s.Connect(context.Background(), "ABCD"))
	gs.sendRaw(t, "{not json")
	gs.send(t, Message{Type: MsgChatMessage, Message: "still here", Username: "bob"})

	select {
	case m := <-got:
		assert.Equal(t, "still here", m.Message, "dispatch must continue after a malformed frame")
	case <-time.After(time.Second):
		t.Fatal("no message after malformed frame")
	}
}

func TestSendWhileDisconnectedDrops(t *testing.T) {
	s := NewGameSocket(DefaultConfig("http://127.0.0.1:1"))

	// Must log and drop without panicking.
	s.Send(Command{Type: CmdJoinGame})
	s.MakeMove(GameState{"board": []string{}})
	s.RequestState()
	s.SendChatMessage("hello?")
}

func TestCommandRoundTrip(t *testing.T) {
	gs := newGameServer(t)
	s := testSocket(t, gs)

	require.NoError(t, s.Connect(context.Background(), "ABCD"))
	s.JoinGame()
	s.SendChatMessage("hi")

	cmd := <-gs.inbound
	assert.Equal(t, CmdJoinGame, cmd.Type)
	cmd = <-gs.inbound
	assert.Equal(t, CmdChatMessage, cmd.Type)
	assert.Equal(t, "hi", cmd.Message)
}

func TestGameURL(t *testing.T) {
	tests := []struct {
		name   string
		server string
		token  string
		want   string
	}{
		{
			name:   "http to ws with token",
			server: "http://example.com:8000",
			token:  "abc",
			want:   "ws://example.com:8000/ws/game/XYZ1/?token=abc",
		},
		{
			name:   "https to wss",
			server: "https://example.com",
			token:  "abc",
			want:   "wss://example.com/ws/game/XYZ1/?token=abc",
		},
		{
			name:   "anonymous omits token",
			server: "ws://example.com",
			token:  "",
			want:   "ws://example.com/ws/game/XYZ1/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewGameSocket(DefaultConfig(tt.server))
			got, err := s.gameURL("XYZ1", tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("http://localhost:8000")
	assert.Equal(t, time.Second, cfg.ReconnectBaseDelay)
	assert.Equal(t, 5, cfg.MaxReconnectAttempts)
}
