package validation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analysisdom "github.com/bryanwahyu/company-analyst/internal/domain/analysis"
	"github.com/bryanwahyu/company-analyst/internal/domain/settings"
	domain "github.com/bryanwahyu/company-analyst/internal/domain/validation"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type scriptedCompleter struct {
	response string
	calls    []analysisdom.CompletionRequest
}

func (s *scriptedCompleter) Complete(ctx context.Context, req analysisdom.CompletionRequest) (string, error) {
	s.calls = append(s.calls, req)
	return s.response, nil
}

type memReportRepo struct {
	saved []*domain.StoredReport
}

func (m *memReportRepo) Save(ctx context.Context, rep *domain.StoredReport) error {
	m.saved = append(m.saved, rep)
	return nil
}

func (m *memReportRepo) Paginate(ctx context.Context, username string, page, pageSize int) ([]*domain.StoredReport, error) {
	return m.saved, nil
}

func newService(sc *scriptedCompleter) *Service {
	return &Service{
		NewCompleter: func(apiKey string) analysisdom.Completer { return sc },
		Clock:        fixedClock{t: time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)},
	}
}

func configured() settings.Settings {
	return settings.Settings{settings.KeyAPIKey: "sk-test"}
}

func TestRunBuildsReportEnvelope(t *testing.T) {
	sc := &scriptedCompleter{response: `{"overall_assessment": "correct"}`}
	svc := newService(sc)

	report, err := svc.Run(context.Background(), Command{
		Username: "alice",
		Input:    []any{"Apple Inc.", "Tesla Inc."},
		Expected: map[string]any{"total_companies": float64(2)},
		Actual:   map[string]any{"total_companies": float64(2)},
		Config:   configured(),
	})
	require.NoError(t, err)

	assert.Equal(t, "2025-01-15T09:30:00Z", report.ValidationTimestamp)
	assert.Equal(t, "input_companies", report.InputSummary.Type)
	assert.Equal(t, 2, report.InputSummary.Count)
	assert.Equal(t, "expected_results", report.ExpectedSummary.Type)
	assert.Equal(t, float64(2), report.ExpectedSummary.TotalCompanies)
	assert.Equal(t, "actual_results", report.ActualSummary.Type)

	analysis, ok := report.ValidationAnalysis.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "correct", analysis["overall_assessment"])
}

func TestRunSummariesDegradeToNA(t *testing.T) {
	sc := &scriptedCompleter{response: "not json"}
	svc := newService(sc)

	report, err := svc.Run(context.Background(), Command{
		Input:    map[string]any{"not": "a list"},
		Expected: []any{"not", "an", "object"},
		Actual:   map[string]any{"results": []any{}},
		Config:   configured(),
	})
	require.NoError(t, err)

	assert.Equal(t, "N/A", report.InputSummary.Count)
	assert.Equal(t, "N/A", report.ExpectedSummary.TotalCompanies)
	// object without total_companies counts as zero
	assert.Equal(t, 0, report.ActualSummary.TotalCompanies)
	// non-JSON assessment kept as raw text
	assert.Equal(t, "not json", report.ValidationAnalysis)
}

func TestRunPreconditions(t *testing.T) {
	sc := &scriptedCompleter{}
	svc := newService(sc)

	_, err := svc.Run(context.Background(), Command{
		Input: []any{}, Expected: map[string]any{}, Actual: map[string]any{},
		Config: settings.Settings{},
	})
	assert.ErrorIs(t, err, analysisdom.ErrMissingAPIKey)

	_, err = svc.Run(context.Background(), Command{
		Input: []any{}, Expected: map[string]any{},
		Config: configured(),
	})
	assert.ErrorIs(t, err, domain.ErrMissingInputs)

	assert.Empty(t, sc.calls)
}

func TestRunSubstitutesDocumentsIntoPrompt(t *testing.T) {
	sc := &scriptedCompleter{response: "{}"}
	svc := newService(sc)

	_, err := svc.Run(context.Background(), Command{
		Input:    []any{"Gojek"},
		Expected: map[string]any{"total_companies": float64(1)},
		Actual:   map[string]any{"total_companies": float64(1)},
		Template: "A:{input_json}\nB:{expected_json}\nC:{actual_json}",
		Config:   configured(),
	})
	require.NoError(t, err)

	require.Len(t, sc.calls, 1)
	msg := sc.calls[0].UserMessage
	assert.Contains(t, msg, `"Gojek"`)
	assert.NotContains(t, msg, "{input_json}")
}

func TestRunPersistsStoredReport(t *testing.T) {
	sc := &scriptedCompleter{response: "{}"}
	svc := newService(sc)
	repo := &memReportRepo{}
	svc.Repo = repo

	_, err := svc.Run(context.Background(), Command{
		Username: "alice",
		RunID:    "run-1",
		Input:    []any{"Gojek"},
		Expected: map[string]any{},
		Actual:   map[string]any{},
		Config:   configured(),
	})
	require.NoError(t, err)

	require.Len(t, repo.saved, 1)
	stored := repo.saved[0]
	assert.Equal(t, "alice", stored.Username)
	assert.Equal(t, "run-1", stored.RunID)
	assert.NotEmpty(t, stored.ID)
	assert.Contains(t, stored.Report, "validation_timestamp")
}
