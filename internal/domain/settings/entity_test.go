package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalKey(t *testing.T) {
	for in, want := range map[string]string{
		"openai_api_key": KeyAPIKey,
		"OPENAI_API_KEY": KeyAPIKey,
		" Openai_Model ": KeyModel,
		"max_tokens":     KeyMaxTokens,
		"temperature":    KeyTemperature,
	} {
		got, ok := CanonicalKey(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}

	_, ok := CanonicalKey("DATABASE_URL")
	assert.False(t, ok)
}

func TestDefaultsApplyOnlyWhenUnset(t *testing.T) {
	cfg := Settings{}

	assert.Equal(t, DefaultModel, cfg.Model())

	mt, err := cfg.MaxTokens()
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxTokens, mt)

	temp, err := cfg.Temperature()
	require.NoError(t, err)
	assert.InDelta(t, DefaultTemperature, temp, 0.0001)
}

func TestMalformedNumericValuesError(t *testing.T) {
	cfg := Settings{KeyMaxTokens: "a lot", KeyTemperature: "warm"}

	_, err := cfg.MaxTokens()
	assert.Error(t, err)

	_, err = cfg.Temperature()
	assert.Error(t, err)
}

func TestHasAPIKeyIgnoresWhitespace(t *testing.T) {
	assert.False(t, Settings{}.HasAPIKey())
	assert.False(t, Settings{KeyAPIKey: "   "}.HasAPIKey())
	assert.True(t, Settings{KeyAPIKey: "sk-test"}.HasAPIKey())
}

func TestApplySaveReplacesMapping(t *testing.T) {
	current := Settings{
		KeyAPIKey:    "sk-old",
		KeyModel:     "gpt-4",
		KeyMaxTokens: "2000",
	}
	next := Settings{
		KeyAPIKey: "sk-new",
		KeyModel:  "gpt-3.5-turbo",
	}
	merged := current.ApplySave(next)

	assert.Equal(t, "sk-new", merged.APIKey())
	assert.Equal(t, "gpt-3.5-turbo", merged.Model())
	// replacement, not merge: MAX_TOKENS from current is gone
	_, present := merged[KeyMaxTokens]
	assert.False(t, present)
}

func TestApplySaveBlankKeyPreservesPrevious(t *testing.T) {
	current := Settings{KeyAPIKey: "sk-old"}
	merged := current.ApplySave(Settings{KeyAPIKey: "  ", KeyModel: "gpt-4"})

	assert.Equal(t, "sk-old", merged.APIKey())
	assert.Equal(t, "gpt-4", merged.Model())

	// no previous key: blank stays absent
	merged = Settings{}.ApplySave(Settings{KeyAPIKey: ""})
	assert.False(t, merged.HasAPIKey())
}

func TestCloneIsIndependent(t *testing.T) {
	orig := Settings{KeyAPIKey: "sk-a"}
	cp := orig.Clone()
	cp[KeyAPIKey] = "sk-b"
	assert.Equal(t, "sk-a", orig.APIKey())
}

func TestParseEnvContent(t *testing.T) {
	content := `
# comment line
OPENAI_API_KEY="sk-secret"
OPENAI_MODEL='gpt-4'
MAX_TOKENS=1500

not a pair
TEMPERATURE = 0.2
DATABASE_URL=postgres://u:p@host/db?x=1
`
	cfg := ParseEnvContent(content)

	assert.Equal(t, "sk-secret", cfg["OPENAI_API_KEY"])
	assert.Equal(t, "gpt-4", cfg["OPENAI_MODEL"])
	assert.Equal(t, "1500", cfg["MAX_TOKENS"])
	assert.Equal(t, "0.2", cfg["TEMPERATURE"])
	// value keeps everything after the first '='
	assert.Equal(t, "postgres://u:p@host/db?x=1", cfg["DATABASE_URL"])
	assert.NotContains(t, cfg, "not a pair")
	assert.Len(t, cfg, 5)
}

func TestParseEnvContentEmpty(t *testing.T) {
	assert.Empty(t, ParseEnvContent("# only comments\n\n"))
}
