package settings

import (
	"strconv"
	"strings"
)

// Canonical configuration keys
const (
	KeyAPIKey      = "OPENAI_API_KEY"
	KeyModel       = "OPENAI_MODEL"
	KeyMaxTokens   = "MAX_TOKENS"
	KeyTemperature = "TEMPERATURE"
)

// Defaults applied when a key is unset
const (
	DefaultModel       = "gpt-3.5-turbo"
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
)

// Settings is the active configuration mapping. At most one instance is
// active per session; a save replaces the whole mapping (see ApplySave).
type Settings map[string]string

// CanonicalKey maps a key case-insensitively onto one of the canonical keys.
func CanonicalKey(key string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(key)) {
	case KeyAPIKey:
		return KeyAPIKey, true
	case KeyModel:
		return KeyModel, true
	case KeyMaxTokens:
		return KeyMaxTokens, true
	case KeyTemperature:
		return KeyTemperature, true
	}
	return "", false
}

func (s Settings) APIKey() string { return s[KeyAPIKey] }

func (s Settings) HasAPIKey() bool { return strings.TrimSpace(s[KeyAPIKey]) != "" }

func (s Settings) Model() string {
	if v := s[KeyModel]; v != "" {
		return v
	}
	return DefaultModel
}

// MaxTokens parses MAX_TOKENS; the default applies only when the key is unset,
// a malformed value is an error.
func (s Settings) MaxTokens() (int, error) {
	v, ok := s[KeyMaxTokens]
	if !ok || v == "" {
		return DefaultMaxTokens, nil
	}
	return strconv.Atoi(strings.TrimSpace(v))
}

// Temperature parses TEMPERATURE; same default policy as MaxTokens.
func (s Settings) Temperature() (float32, error) {
	v, ok := s[KeyTemperature]
	if !ok || v == "" {
		return DefaultTemperature, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
	if err != nil {
		return 0, err
	}
	return float32(f), nil
}

func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ApplySave replaces the mapping with next in full, except a blank API key in
// next preserves the previous key rather than clearing it.
func (s Settings) ApplySave(next Settings) Settings {
	merged := next.Clone()
	if strings.TrimSpace(merged[KeyAPIKey]) == "" {
		delete(merged, KeyAPIKey)
		if prev := s[KeyAPIKey]; prev != "" {
			merged[KeyAPIKey] = prev
		}
	}
	return merged
}

// UserSettings is the per-user settings file payload.
type UserSettings struct {
	ConfigSettings Settings `json:"config_settings"`
	OpenAIAPIKey   string   `json:"openai_api_key"`
	LastSaved      string   `json:"last_saved"`
}
