package settings

import "context"

// Provider is one configuration source. TryResolve reports whether the
// source is present; a missing file is "absent", not an error.
type Provider interface {
	Name() string
	TryResolve(ctx context.Context) (Settings, bool, error)
}

// UserStore persists per-user saved settings. Load returns (nil, nil) when
// the user has no saved settings.
type UserStore interface {
	Load(ctx context.Context, username string) (*UserSettings, error)
	Save(ctx context.Context, username string, us *UserSettings) error
}
