package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/company-analyst/internal/domain/settings"
)

func TestStoreLifecycle(t *testing.T) {
	store := NewStore()
	cfg := settings.Settings{settings.KeyAPIKey: "sk-a"}

	token := store.Create("alice", cfg, "secrets")
	require.NotEmpty(t, token)

	st, ok := store.Get(token)
	require.True(t, ok)
	assert.Equal(t, "alice", st.Username)
	assert.Equal(t, "secrets", st.ConfigSource)
	assert.Equal(t, "sk-a", st.Settings.APIKey())

	ok = store.Update(token, func(s *State) {
		s.LastRunID = "run-1"
	})
	assert.True(t, ok)
	st, _ = store.Get(token)
	assert.Equal(t, "run-1", st.LastRunID)

	store.Delete(token)
	_, ok = store.Get(token)
	assert.False(t, ok)
}

func TestStoreUnknownToken(t *testing.T) {
	store := NewStore()

	_, ok := store.Get("nope")
	assert.False(t, ok)
	assert.False(t, store.Update("nope", func(s *State) {}))
}

func TestStoreTokensAreUnique(t *testing.T) {
	store := NewStore()
	a := store.Create("alice", nil, "none")
	b := store.Create("alice", nil, "none")
	assert.NotEqual(t, a, b)
}
