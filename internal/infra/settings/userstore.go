package settings

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	domain "github.com/bryanwahyu/company-analyst/internal/domain/settings"
)

// UserID derives the settings-file key for a username. Deliberately weak
// (truncated MD5, not a session credential): it only namespaces files on
// disk, matching the original localStorage-style store.
func UserID(username string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(username))))
	return hex.EncodeToString(sum[:])[:8]
}

// FileUserStore persists per-user settings as JSON files under Dir.
type FileUserStore struct {
	Dir string
}

func (s FileUserStore) path(username string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("user_settings_%s.json", UserID(username)))
}

func (s FileUserStore) Load(ctx context.Context, username string) (*domain.UserSettings, error) {
	data, err := os.ReadFile(s.path(username))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read user settings: %w", err)
	}
	var us domain.UserSettings
	if err := json.Unmarshal(data, &us); err != nil {
		return nil, fmt.Errorf("parse user settings: %w", err)
	}
	return &us, nil
}

func (s FileUserStore) Save(ctx context.Context, username string, us *domain.UserSettings) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := json.MarshalIndent(us, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path(username), data, 0o600); err != nil {
		return fmt.Errorf("write user settings: %w", err)
	}
	return nil
}
