package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/company-analyst/internal/domain/analysis"
	"github.com/bryanwahyu/company-analyst/internal/domain/runerrors"
	"github.com/bryanwahyu/company-analyst/internal/domain/settings"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// fakeCompleter scripts one response per company, keyed by the company name
// that appears in the user message.
type fakeCompleter struct {
	mu        sync.Mutex
	responses map[string]string
	failFor   map[string]error
	calls     []domain.CompletionRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	for name, err := range f.failFor {
		if strings.Contains(req.UserMessage, name) {
			return "", err
		}
	}
	for name, resp := range f.responses {
		if strings.Contains(req.UserMessage, name) {
			return resp, nil
		}
	}
	return "no match", nil
}

type memErrorRepo struct {
	saved []*runerrors.RunError
}

func (m *memErrorRepo) Save(ctx context.Context, e *runerrors.RunError) error {
	m.saved = append(m.saved, e)
	return nil
}

func (m *memErrorRepo) ListByRun(ctx context.Context, username, runID string, limit int) ([]*runerrors.RunError, error) {
	return m.saved, nil
}

type memRunRepo struct {
	runs []*domain.Run
}

func (m *memRunRepo) Save(ctx context.Context, run *domain.Run) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *memRunRepo) Get(ctx context.Context, username string, id domain.RunID) (*domain.Run, error) {
	for _, r := range m.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memRunRepo) Latest(ctx context.Context, username string, limit int) ([]*domain.Run, error) {
	return m.runs, nil
}

func newService(fc *fakeCompleter) *Service {
	return &Service{
		NewCompleter: func(apiKey string) domain.Completer { return fc },
		Clock:        fixedClock{t: time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)},
	}
}

func configured() settings.Settings {
	return settings.Settings{settings.KeyAPIKey: "sk-test"}
}

func TestRunSingleParsesJSONResponse(t *testing.T) {
	fc := &fakeCompleter{responses: map[string]string{
		"Acme": `{"company_name": "Acme", "main_twitter_handle": "@Acme"}`,
	}}
	svc := newService(fc)

	res, err := svc.RunSingle(context.Background(), SingleCommand{Company: "Acme", Config: configured()})
	require.NoError(t, err)

	assert.Equal(t, "Acme", res.Company)
	m, ok := res.Analysis.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "@Acme", m["main_twitter_handle"])
	assert.Equal(t, "2025-01-15T09:30:00Z", res.Timestamp)
}

func TestRunSingleNonJSONResponseKeptRaw(t *testing.T) {
	fc := &fakeCompleter{responses: map[string]string{
		"Acme": "I could not determine the handle.",
	}}
	svc := newService(fc)

	res, err := svc.RunSingle(context.Background(), SingleCommand{Company: "Acme", Config: configured()})
	require.NoError(t, err)
	assert.Equal(t, "I could not determine the handle.", res.Analysis)
}

func TestRunSinglePreconditions(t *testing.T) {
	fc := &fakeCompleter{}
	svc := newService(fc)

	_, err := svc.RunSingle(context.Background(), SingleCommand{Company: "   ", Config: configured()})
	assert.ErrorIs(t, err, domain.ErrMissingCompanyName)

	_, err = svc.RunSingle(context.Background(), SingleCommand{Company: "Acme", Config: settings.Settings{}})
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)

	// precondition failures never reach the API
	assert.Empty(t, fc.calls)
}

func TestRunSingleUsesConfiguredModelAndLimits(t *testing.T) {
	fc := &fakeCompleter{}
	svc := newService(fc)
	cfg := settings.Settings{
		settings.KeyAPIKey:      "sk-test",
		settings.KeyModel:       "gpt-4",
		settings.KeyMaxTokens:   "2000",
		settings.KeyTemperature: "0.2",
	}

	_, err := svc.RunSingle(context.Background(), SingleCommand{Company: "Acme", Config: cfg})
	require.NoError(t, err)

	require.Len(t, fc.calls, 1)
	call := fc.calls[0]
	assert.Equal(t, "gpt-4", call.Model)
	assert.Equal(t, 2000, call.MaxTokens)
	assert.InDelta(t, 0.2, call.Temperature, 0.0001)
	assert.Contains(t, call.UserMessage, "Acme")
}

func TestRunSingleMalformedLimitsSurface(t *testing.T) {
	fc := &fakeCompleter{}
	svc := newService(fc)
	cfg := configured()
	cfg[settings.KeyMaxTokens] = "many"

	_, err := svc.RunSingle(context.Background(), SingleCommand{Company: "Acme", Config: cfg})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_TOKENS")
	assert.Empty(t, fc.calls)
}

func TestRunBatchOrderAndErrorCapture(t *testing.T) {
	boom := errors.New("rate limited by upstream")
	fc := &fakeCompleter{
		responses: map[string]string{
			"Alpha": `{"company_name": "Alpha"}`,
			"Gamma": `{"company_name": "Gamma"}`,
		},
		failFor: map[string]error{"Beta": boom},
	}
	svc := newService(fc)
	errRepo := &memErrorRepo{}
	svc.Errors = errRepo

	var progress []int
	out, run, err := svc.RunBatch(context.Background(), BatchCommand{
		Username:  "alice",
		Companies: []any{"Alpha", "Beta", "Gamma"},
		Config:    configured(),
		OnProgress: func(done, total int) {
			assert.Equal(t, 3, total)
			progress = append(progress, done)
		},
	})
	require.NoError(t, err)
	require.NotNil(t, run)

	require.Len(t, out.Results, 3)
	assert.Equal(t, 3, out.TotalCompanies)
	assert.Equal(t, "Alpha", out.Results[0].Company)
	assert.Equal(t, "Beta", out.Results[1].Company)
	assert.Equal(t, "Gamma", out.Results[2].Company)

	// the failing item is captured in place, the run keeps going
	assert.Equal(t, fmt.Sprintf("Error: %s", boom.Error()), out.Results[1].Analysis)
	require.Len(t, errRepo.saved, 1)
	assert.Equal(t, "Beta", errRepo.saved[0].Company)
	assert.Equal(t, string(run.ID), errRepo.saved[0].RunID)

	assert.Equal(t, []int{1, 2, 3}, progress)
}

func TestRunBatchSkipsUnusableRecords(t *testing.T) {
	fc := &fakeCompleter{responses: map[string]string{
		"Alpha": `{}`,
		"Named": `{}`,
	}}
	svc := newService(fc)

	out, _, err := svc.RunBatch(context.Background(), BatchCommand{
		Companies: []any{
			"Alpha",
			float64(42),
			map[string]any{"company": "missing name key"},
			map[string]any{"name": "Named"},
		},
		Config: configured(),
	})
	require.NoError(t, err)

	require.Len(t, out.Results, 2)
	assert.Equal(t, "Alpha", out.Results[0].Company)
	assert.Equal(t, "Named", out.Results[1].Company)
	assert.Equal(t, 2, out.TotalCompanies)
}

func TestRunBatchRequiresAPIKey(t *testing.T) {
	svc := newService(&fakeCompleter{})
	_, _, err := svc.RunBatch(context.Background(), BatchCommand{
		Companies: []any{"Alpha"},
		Config:    settings.Settings{},
	})
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
}

func TestRunBatchPersistsRun(t *testing.T) {
	fc := &fakeCompleter{responses: map[string]string{"Alpha": `{}`}}
	svc := newService(fc)
	repo := &memRunRepo{}
	svc.Repo = repo

	out, run, err := svc.RunBatch(context.Background(), BatchCommand{
		Username:  "alice",
		Companies: []any{"Alpha"},
		Config:    configured(),
	})
	require.NoError(t, err)

	require.Len(t, repo.runs, 1)
	saved := repo.runs[0]
	assert.Equal(t, run.ID, saved.ID)
	assert.Equal(t, "alice", saved.Username)
	assert.Equal(t, domain.StatusSuccess, saved.Status)
	assert.Equal(t, out.TotalCompanies, saved.TotalCompanies)
	assert.Contains(t, saved.Output, `"total_companies": 1`)
}
