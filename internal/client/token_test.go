package client

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStoreRoundTrip(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "nested", "token"))

	assert.Equal(t, "", store.Load(), "missing file means no token")

	require.NoError(t, store.Save("abc123"))
	assert.Equal(t, "abc123", store.Load())

	require.NoError(t, store.Save("def456"))
	assert.Equal(t, "def456", store.Load(), "save replaces the previous token")

	require.NoError(t, store.Clear())
	assert.Equal(t, "", store.Load())
	require.NoError(t, store.Clear(), "clearing twice is fine")
}

func TestTokenStoreSource(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "token"))
	src := store.Source()

	assert.Equal(t, "", src())
	require.NoError(t, store.Save("fresh"))
	assert.Equal(t, "fresh", src(), "source reads the store at call time")
}
