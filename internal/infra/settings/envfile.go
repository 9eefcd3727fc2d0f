package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	domain "github.com/bryanwahyu/company-analyst/internal/domain/settings"
)

// EnvFileProvider resolves configuration from a local .env file. A missing
// file means the source is absent; unreadable content is an I/O error.
type EnvFileProvider struct {
	Path string
}

func (p EnvFileProvider) Name() string { return "env-file" }

func (p EnvFileProvider) TryResolve(ctx context.Context) (domain.Settings, bool, error) {
	data, err := os.ReadFile(p.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read env file %s: %w", p.Path, err)
	}
	cfg := domain.ParseEnvContent(string(data))
	if len(cfg) == 0 {
		return nil, false, nil
	}
	return cfg, true, nil
}

// SecretsProvider resolves configuration from a deployment secrets file
// (flat YAML mapping). Keys map case-insensitively onto the canonical keys;
// unknown keys are dropped.
type SecretsProvider struct {
	Path string
}

func (p SecretsProvider) Name() string { return "secrets" }

func (p SecretsProvider) TryResolve(ctx context.Context) (domain.Settings, bool, error) {
	data, err := os.ReadFile(p.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read secrets file %s: %w", p.Path, err)
	}
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, false, fmt.Errorf("parse secrets file %s: %w", p.Path, err)
	}
	cfg := domain.Settings{}
	for k, v := range raw {
		if ck, ok := domain.CanonicalKey(k); ok {
			cfg[ck] = v
		}
	}
	if len(cfg) == 0 {
		return nil, false, nil
	}
	return cfg, true, nil
}
