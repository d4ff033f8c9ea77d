// Package client provides the WebSocket game-session client and the REST
// client for the dost backend. Types mirror the backend wire protocol
// without importing backend packages.
package client

import "time"

// MessageType identifies the kind of inbound WebSocket message.
type MessageType string

const (
	MsgGameUpdate  MessageType = "game_update"
	MsgGameState   MessageType = "game_state"
	MsgChatMessage MessageType = "chat_message"
	MsgError       MessageType = "error"
)

// CommandType identifies the kind of outbound WebSocket command.
type CommandType string

const (
	CmdJoinGame    CommandType = "join_game"
	CmdMakeMove    CommandType = "make_move"
	CmdGetState    CommandType = "get_state"
	CmdChatMessage CommandType = "chat_message"
)

// GameStatus is the lifecycle status of a multiplayer game room.
type GameStatus string

const (
	StatusWaiting    GameStatus = "waiting"
	StatusInProgress GameStatus = "in-progress"
	StatusFinished   GameStatus = "finished"
	StatusAbandoned  GameStatus = "abandoned"
)

// GameState is the open-ended game-state blob. The server owns its shape;
// the client treats it as opaque and replaces it wholesale on each update.
type GameState map[string]any

// PlayerInfo is one roster entry. The roster is a read-only snapshot
// replaced wholesale on each update, never merged field-by-field.
type PlayerInfo struct {
	ID       int    `json:"id"`
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Symbol   string `json:"symbol"`
	Score    int    `json:"score"`
}

// Message is the envelope for all inbound WebSocket messages. Optional
// fields stay at their zero value when absent; Players and GameState are
// nil when the frame did not carry them, which is how presence is told
// apart from an empty roster or empty state.
type Message struct {
	Type      MessageType  `json:"type"`
	GameState GameState    `json:"game_state,omitempty"`
	Status    GameStatus   `json:"status,omitempty"`
	Players   []PlayerInfo `json:"players,omitempty"`
	Message   string       `json:"message,omitempty"`
	Username  string       `json:"username,omitempty"`
}

// Command is the envelope for all outbound WebSocket commands.
type Command struct {
	Type      CommandType `json:"type"`
	GameState GameState   `json:"game_state,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// --- REST types ---

// AuthTokens is the response of POST /api/auth/login/.
type AuthTokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Profile mirrors the authenticated user returned by /api/auth/profile/.
type Profile struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// RoomPlayer is a roster entry in a REST room snapshot.
type RoomPlayer struct {
	ID       int       `json:"id"`
	Username string    `json:"username"`
	Symbol   string    `json:"symbol"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joined_at"`
}

// MultiplayerRoom mirrors the backend's multiplayer game session resource.
type MultiplayerRoom struct {
	ID           int          `json:"id"`
	RoomCode     string       `json:"room_code"`
	GameType     string       `json:"game_type"`
	Host         int          `json:"host"`
	HostUsername string       `json:"host_username"`
	PlayerList   []RoomPlayer `json:"player_list"`
	PlayerCount  int          `json:"player_count"`
	MaxPlayers   int          `json:"max_players"`
	Status       GameStatus   `json:"status"`
	GameState    GameState    `json:"game_state"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
