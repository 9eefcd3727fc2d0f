package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/company-analyst/internal/application"
	domain "github.com/bryanwahyu/company-analyst/internal/domain/analysis"
	"github.com/bryanwahyu/company-analyst/internal/domain/runerrors"
	"github.com/bryanwahyu/company-analyst/internal/domain/settings"
	"github.com/bryanwahyu/company-analyst/internal/infra/ai/prompt"
)

// CompleterFactory builds a Completer for one API key. Keys are resolved
// per session, so the service cannot hold a single pre-built client.
type CompleterFactory func(apiKey string) domain.Completer

// Service implements use-cases untuk company analysis.
// Repo, Errors and Artifacts are optional: persistence is best effort and a
// run's output is returned even when none of them are configured.
type Service struct {
	NewCompleter CompleterFactory
	Repo         domain.Repository
	Errors       runerrors.Repository
	Artifacts    domain.ArtifactStore
	Clock        application.Clock
}

//
// ==== USE CASES ====
//

type SingleCommand struct {
	Company  string
	Template string
	Config   settings.Settings
}

// RunSingle formats one prompt, calls the completion API once and
// normalizes the result. Precondition violations return before any call.
func (s *Service) RunSingle(ctx context.Context, cmd SingleCommand) (domain.Result, error) {
	company := strings.TrimSpace(cmd.Company)
	if company == "" {
		return domain.Result{}, domain.ErrMissingCompanyName
	}
	if !cmd.Config.HasAPIKey() {
		return domain.Result{}, domain.ErrMissingAPIKey
	}
	return s.analyzeOne(ctx, company, cmd.Template, cmd.Config)
}

type BatchCommand struct {
	Username  string
	Companies []any
	Template  string
	Config    settings.Settings

	// OnProgress is advisory, UI-facing only; it receives the count of
	// consumed input records over the input length.
	OnProgress func(done, total int)
}

// RunBatch processes company records strictly sequentially, in input order.
// A failing item is captured as "Error: <message>" and the loop continues;
// records that are neither a string nor an object with a name are skipped.
func (s *Service) RunBatch(ctx context.Context, cmd BatchCommand) (*domain.BatchOutput, *domain.Run, error) {
	if !cmd.Config.HasAPIKey() {
		return nil, nil, domain.ErrMissingAPIKey
	}

	started := s.Clock.Now()
	id := domain.RunID(uuid.New().String())
	total := len(cmd.Companies)
	results := make([]domain.Result, 0, total)

	for i, record := range cmd.Companies {
		name, ok := domain.DisplayName(record)
		if !ok {
			continue
		}
		res, err := s.analyzeOne(ctx, name, cmd.Template, cmd.Config)
		if err != nil {
			res = domain.Result{
				Company:   name,
				Analysis:  fmt.Sprintf("Error: %s", err.Error()),
				Timestamp: s.Clock.Now().Format(time.RFC3339),
			}
			if s.Errors != nil {
				_ = s.Errors.Save(ctx, &runerrors.RunError{
					Username:  cmd.Username,
					RunID:     string(id),
					Company:   name,
					Phase:     "batch",
					Message:   err.Error(),
					CreatedAt: s.Clock.Now(),
				})
			}
		}
		results = append(results, res)
		if cmd.OnProgress != nil {
			cmd.OnProgress(i+1, total)
		}
	}

	out := &domain.BatchOutput{
		GeneratedAt:    s.Clock.Now().Format(time.RFC3339),
		TotalCompanies: len(results),
		Results:        results,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, nil, err
	}

	// upload artifact; kalau gagal cukup di-log, output tetap dikembalikan
	artifactURL := ""
	if s.Artifacts != nil {
		key := fmt.Sprintf("%s/company_analysis_%s.json", cmd.Username, started.Format("20060102_150405"))
		url, uerr := s.Artifacts.PutJSON(ctx, key, data)
		if uerr != nil {
			log.Printf("batch artifact upload failed: %v", uerr)
		} else {
			artifactURL = url
		}
	}

	run := &domain.Run{
		ID:             id,
		Username:       cmd.Username,
		GeneratedAt:    started,
		TotalCompanies: len(results),
		Status:         domain.StatusSuccess,
		ArtifactURL:    artifactURL,
		DurationMS:     s.Clock.Now().Sub(started).Milliseconds(),
		Output:         string(data),
	}
	if s.Repo != nil {
		if err := s.Repo.Save(ctx, run); err != nil {
			log.Printf("save batch run %s failed: %v", id, err)
		}
	}
	return out, run, nil
}

// Latest ambil N run terakhir
func (s *Service) Latest(ctx context.Context, username string, limit int) ([]*domain.Run, error) {
	if s.Repo == nil {
		return nil, nil
	}
	return s.Repo.Latest(ctx, username, limit)
}

// Get ambil 1 run by id
func (s *Service) Get(ctx context.Context, username string, id domain.RunID) (*domain.Run, error) {
	if s.Repo == nil {
		return nil, nil
	}
	return s.Repo.Get(ctx, username, id)
}

// RunErrors ambil error log per run
func (s *Service) RunErrors(ctx context.Context, username, runID string, limit int) ([]*runerrors.RunError, error) {
	if s.Errors == nil {
		return nil, nil
	}
	return s.Errors.ListByRun(ctx, username, runID, limit)
}

// analyzeOne: format prompt → completion call → normalize → timestamp.
func (s *Service) analyzeOne(ctx context.Context, company, template string, cfg settings.Settings) (domain.Result, error) {
	if template == "" {
		template = prompt.DefaultAnalysisTemplate
	}
	formatted, err := prompt.FormatCompanyPrompt(template, company)
	if err != nil {
		return domain.Result{}, fmt.Errorf("prompt formatting error: %w", err)
	}
	maxTokens, err := cfg.MaxTokens()
	if err != nil {
		return domain.Result{}, fmt.Errorf("invalid MAX_TOKENS: %w", err)
	}
	temperature, err := cfg.Temperature()
	if err != nil {
		return domain.Result{}, fmt.Errorf("invalid TEMPERATURE: %w", err)
	}

	completer := s.NewCompleter(cfg.APIKey())
	raw, err := completer.Complete(ctx, domain.CompletionRequest{
		Model:         cfg.Model(),
		MaxTokens:     maxTokens,
		Temperature:   temperature,
		SystemMessage: prompt.SystemAnalyst,
		UserMessage:   formatted,
	})
	if err != nil {
		return domain.Result{}, err
	}

	return domain.Result{
		Company:   company,
		Analysis:  domain.Normalize(raw),
		Timestamp: s.Clock.Now().Format(time.RFC3339),
	}, nil
}
