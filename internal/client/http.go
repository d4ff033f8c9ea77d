package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient makes REST calls to the dost backend. It is the boundary the
// game-session client does not cross itself: its only contract with the
// socket layer is that a successful Login refreshes the token the socket
// reads from the TokenStore.
type HTTPClient struct {
	baseURL string
	tokens  *TokenStore
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL
// (e.g. "http://127.0.0.1:8000") using tokens for bearer auth.
func NewHTTPClient(baseURL string, tokens *TokenStore) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		tokens:  tokens,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Login authenticates and persists the returned access token.
func (c *HTTPClient) Login(username, password string) (*AuthTokens, error) {
	body := map[string]string{"username": username, "password": password}
	var out AuthTokens
	if err := c.post("/api/auth/login/", body, &out); err != nil {
		return nil, err
	}
	if err := c.tokens.Save(out.Access); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	return &out, nil
}

// GetProfile fetches the authenticated user.
func (c *HTTPClient) GetProfile() (*Profile, error) {
	var p Profile
	if err := c.get("/api/auth/profile/", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateRoom creates a multiplayer game room of the given type and returns
// its snapshot, including the room code to connect the socket to.
func (c *HTTPClient) CreateRoom(gameType string) (*MultiplayerRoom, error) {
	body := map[string]string{"game_type": gameType}
	var out MultiplayerRoom
	if err := c.post("/api/games/multiplayer/create/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// JoinRoom registers this user as a player in the room.
func (c *HTTPClient) JoinRoom(roomCode string) (*MultiplayerRoom, error) {
	var out MultiplayerRoom
	if err := c.post("/api/games/multiplayer/"+roomCode+"/join/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRoom fetches a room snapshot.
func (c *HTTPClient) GetRoom(roomCode string) (*MultiplayerRoom, error) {
	var out MultiplayerRoom
	if err := c.get("/api/games/multiplayer/"+roomCode+"/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) get(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: %d %s", path, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTPClient) post(path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("POST %s: %d %s", path, resp.StatusCode, string(respBody))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if token := c.tokens.Load(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
