package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/company-analyst/internal/domain/settings"
)

func TestUserIDStableAndCaseInsensitive(t *testing.T) {
	a := UserID("Alice")
	assert.Len(t, a, 8)
	assert.Equal(t, a, UserID("alice"))
	assert.Equal(t, a, UserID("  ALICE  "))
	assert.NotEqual(t, a, UserID("bob"))
}

func TestFileUserStoreRoundTrip(t *testing.T) {
	store := FileUserStore{Dir: filepath.Join(t.TempDir(), "settings")}
	ctx := context.Background()

	// absent user: nil, nil
	us, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, us)

	saved := &domain.UserSettings{
		ConfigSettings: domain.Settings{domain.KeyAPIKey: "sk-a", domain.KeyModel: "gpt-4"},
		OpenAIAPIKey:   "sk-a",
		LastSaved:      "2025-01-15T09:30:00Z",
	}
	require.NoError(t, store.Save(ctx, "alice", saved))

	got, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, saved.ConfigSettings, got.ConfigSettings)
	assert.Equal(t, "sk-a", got.OpenAIAPIKey)
	assert.Equal(t, "2025-01-15T09:30:00Z", got.LastSaved)

	// file name carries the derived user id, not the raw username
	_, err = os.Stat(filepath.Join(store.Dir, "user_settings_"+UserID("alice")+".json"))
	assert.NoError(t, err)
}

func TestFileUserStoreUsersAreIsolated(t *testing.T) {
	store := FileUserStore{Dir: t.TempDir()}
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "alice", &domain.UserSettings{
		ConfigSettings: domain.Settings{domain.KeyAPIKey: "sk-a"},
	}))

	got, err := store.Load(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileUserStoreCorruptFileErrors(t *testing.T) {
	dir := t.TempDir()
	store := FileUserStore{Dir: dir}
	path := filepath.Join(dir, "user_settings_"+UserID("alice")+".json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	_, err := store.Load(context.Background(), "alice")
	assert.Error(t, err)
}
