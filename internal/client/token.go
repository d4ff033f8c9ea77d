package client

import (
	"os"
	"path/filepath"
	"strings"
)

// TokenStore persists the bearer access token between runs, the terminal
// analog of the web client's localStorage slot. The GameSocket reads it
// through Source at each connect attempt, so a token refreshed by a login
// between attempts is picked up.
type TokenStore struct {
	path string
}

// NewTokenStore creates a store backed by the file at path. An empty path
// falls back to DefaultTokenPath.
func NewTokenStore(path string) *TokenStore {
	if path == "" {
		path = DefaultTokenPath()
	}
	return &TokenStore{path: path}
}

// DefaultTokenPath returns the conventional token location under the
// user's config directory.
func DefaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".dost-token")
	}
	return filepath.Join(dir, "dost", "token")
}

// Load returns the stored token, or "" when none has been saved.
func (t *TokenStore) Load() string {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Save writes the token, creating parent directories as needed.
func (t *TokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(t.path, []byte(token+"\n"), 0o600)
}

// Clear removes the stored token. Missing files are not an error.
func (t *TokenStore) Clear() error {
	err := os.Remove(t.path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Source returns a TokenSource reading the store at call time.
func (t *TokenStore) Source() TokenSource {
	return t.Load
}
