package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bryanwahyu/company-analyst/internal/application"
	domain "github.com/bryanwahyu/company-analyst/internal/domain/settings"
)

// ErrNoEnvVars: an env blob was submitted but nothing parseable was in it.
var ErrNoEnvVars = errors.New("no valid environment variables found in the content")

// Service implements use-cases untuk configuration settings.
//
// Resolution order is fixed: secrets file, then the user's saved settings,
// then the local env file, then empty. The first present source wins.
type Service struct {
	Secrets     domain.Provider // optional
	Store       domain.UserStore
	EnvFile     domain.Provider // optional
	EnvFilePath string
	Clock       application.Clock
}

// userProvider adapts the per-user store into the provider chain.
type userProvider struct {
	store    domain.UserStore
	username string
}

func (p userProvider) Name() string { return "user-settings" }

func (p userProvider) TryResolve(ctx context.Context) (domain.Settings, bool, error) {
	us, err := p.store.Load(ctx, p.username)
	if err != nil {
		return nil, false, err
	}
	if us == nil {
		return nil, false, nil
	}
	cfg := us.ConfigSettings.Clone()
	if cfg == nil {
		cfg = domain.Settings{}
	}
	if us.OpenAIAPIKey != "" && cfg[domain.KeyAPIKey] == "" {
		cfg[domain.KeyAPIKey] = us.OpenAIAPIKey
	}
	if len(cfg) == 0 {
		return nil, false, nil
	}
	return cfg, true, nil
}

// Resolve walks the provider chain and returns the active configuration
// together with the name of the source that supplied it ("none" when every
// source is absent). Missing sources are skipped; unreadable ones abort.
func (s *Service) Resolve(ctx context.Context, username string) (domain.Settings, string, error) {
	var providers []domain.Provider
	if s.Secrets != nil {
		providers = append(providers, s.Secrets)
	}
	if s.Store != nil && username != "" {
		providers = append(providers, userProvider{store: s.Store, username: username})
	}
	if s.EnvFile != nil {
		providers = append(providers, s.EnvFile)
	}
	for _, p := range providers {
		cfg, ok, err := p.TryResolve(ctx)
		if err != nil {
			return nil, p.Name(), err
		}
		if ok {
			return cfg, p.Name(), nil
		}
	}
	return domain.Settings{}, "none", nil
}

// Save replaces the active mapping with next (blank API key preserves the
// previous one) and persists the merged result to the user store.
func (s *Service) Save(ctx context.Context, username string, current, next domain.Settings) (domain.Settings, error) {
	merged := current.ApplySave(next)
	if err := s.persist(ctx, username, merged); err != nil {
		return merged, err
	}
	return merged, nil
}

// LoadEnvContent parses a pasted .env blob into a full replacement mapping.
func (s *Service) LoadEnvContent(ctx context.Context, username string, content string) (domain.Settings, error) {
	cfg := domain.ParseEnvContent(content)
	if len(cfg) == 0 {
		return nil, ErrNoEnvVars
	}
	if err := s.persist(ctx, username, cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveEnvFile writes the raw blob to the configured .env path on disk.
func (s *Service) SaveEnvFile(content string) error {
	if s.EnvFilePath == "" {
		return errors.New("env file path is not configured")
	}
	if err := os.WriteFile(s.EnvFilePath, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write env file: %w", err)
	}
	return nil
}

// Clear empties the configuration and the user's saved settings.
func (s *Service) Clear(ctx context.Context, username string) error {
	if s.Store == nil {
		return nil
	}
	return s.Store.Save(ctx, username, &domain.UserSettings{ConfigSettings: domain.Settings{}})
}

// ClearAPIKey removes only the API key, keeping the rest of the mapping.
func (s *Service) ClearAPIKey(ctx context.Context, username string, current domain.Settings) (domain.Settings, error) {
	cfg := current.Clone()
	delete(cfg, domain.KeyAPIKey)
	if err := s.persist(ctx, username, cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (s *Service) persist(ctx context.Context, username string, cfg domain.Settings) error {
	if s.Store == nil || username == "" {
		return nil
	}
	return s.Store.Save(ctx, username, &domain.UserSettings{
		ConfigSettings: cfg,
		OpenAIAPIKey:   cfg.APIKey(),
		LastSaved:      s.Clock.Now().Format(time.RFC3339),
	})
}
