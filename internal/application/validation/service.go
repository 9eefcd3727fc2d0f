package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/company-analyst/internal/application"
	analysisdom "github.com/bryanwahyu/company-analyst/internal/domain/analysis"
	"github.com/bryanwahyu/company-analyst/internal/domain/settings"
	domain "github.com/bryanwahyu/company-analyst/internal/domain/validation"
	"github.com/bryanwahyu/company-analyst/internal/infra/ai/prompt"
)

// Service implements the validation use-case: one completion call comparing
// input list, expected reference and actual batch output.
type Service struct {
	NewCompleter func(apiKey string) analysisdom.Completer
	Repo         domain.Repository         // optional
	Artifacts    analysisdom.ArtifactStore // optional
	Clock        application.Clock
}

type Command struct {
	Username string
	RunID    string
	Input    any
	Expected any
	Actual   any
	Template string
	Config   settings.Settings
}

// Run validates preconditions, substitutes the three JSON documents into the
// validation template and normalizes the model's assessment into a report.
func (s *Service) Run(ctx context.Context, cmd Command) (*domain.Report, error) {
	if !cmd.Config.HasAPIKey() {
		return nil, analysisdom.ErrMissingAPIKey
	}
	if cmd.Input == nil || cmd.Expected == nil || cmd.Actual == nil {
		return nil, domain.ErrMissingInputs
	}

	template := cmd.Template
	if template == "" {
		template = prompt.DefaultValidationTemplate
	}
	formatted, err := prompt.FormatValidationPrompt(template, cmd.Input, cmd.Expected, cmd.Actual)
	if err != nil {
		return nil, fmt.Errorf("prompt formatting error: %w", err)
	}
	maxTokens, err := cmd.Config.MaxTokens()
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_TOKENS: %w", err)
	}
	temperature, err := cmd.Config.Temperature()
	if err != nil {
		return nil, fmt.Errorf("invalid TEMPERATURE: %w", err)
	}

	completer := s.NewCompleter(cmd.Config.APIKey())
	raw, err := completer.Complete(ctx, analysisdom.CompletionRequest{
		Model:         cmd.Config.Model(),
		MaxTokens:     maxTokens,
		Temperature:   temperature,
		SystemMessage: prompt.SystemValidator,
		UserMessage:   formatted,
	})
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	report := &domain.Report{
		ValidationTimestamp: now.Format(time.RFC3339),
		InputSummary:        summarizeInput(cmd.Input),
		ExpectedSummary:     summarizeOutput("expected_results", cmd.Expected),
		ActualSummary:       summarizeOutput("actual_results", cmd.Actual),
		ValidationAnalysis:  analysisdom.Normalize(raw),
	}

	s.persist(ctx, cmd, report, now)
	return report, nil
}

// persist is best effort: history and artifact failures are logged, never fatal.
func (s *Service) persist(ctx context.Context, cmd Command, report *domain.Report, now time.Time) {
	if s.Repo == nil && s.Artifacts == nil {
		return
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Printf("marshal validation report: %v", err)
		return
	}

	artifactURL := ""
	if s.Artifacts != nil {
		key := fmt.Sprintf("%s/validation_report_%s.json", cmd.Username, now.Format("20060102_150405"))
		url, uerr := s.Artifacts.PutJSON(ctx, key, data)
		if uerr != nil {
			log.Printf("validation artifact upload failed: %v", uerr)
		} else {
			artifactURL = url
		}
	}
	if s.Repo != nil {
		stored := &domain.StoredReport{
			ID:          domain.ReportID(uuid.New().String()),
			Username:    cmd.Username,
			RunID:       cmd.RunID,
			Report:      string(data),
			ArtifactURL: artifactURL,
			CreatedAt:   now,
		}
		if err := s.Repo.Save(ctx, stored); err != nil {
			log.Printf("save validation report failed: %v", err)
		}
	}
}

// Reports returns stored report history for the user.
func (s *Service) Reports(ctx context.Context, username string, page, pageSize int) ([]*domain.StoredReport, error) {
	if s.Repo == nil {
		return nil, nil
	}
	return s.Repo.Paginate(ctx, username, page, pageSize)
}

func summarizeInput(input any) domain.Summary {
	sum := domain.Summary{Type: "input_companies"}
	if arr, ok := input.([]any); ok {
		sum.Count = len(arr)
	} else {
		sum.Count = "N/A"
	}
	return sum
}

func summarizeOutput(kind string, doc any) domain.Summary {
	sum := domain.Summary{Type: kind}
	if m, ok := doc.(map[string]any); ok {
		if total, exists := m["total_companies"]; exists {
			sum.TotalCompanies = total
		} else {
			sum.TotalCompanies = 0
		}
	} else {
		sum.TotalCompanies = "N/A"
	}
	return sum
}
