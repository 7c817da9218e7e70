package assist

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"civicpulse_backend/internal/reports"
	"civicpulse_backend/platform/apperr"
	"civicpulse_backend/platform/logger"
)

// Completer produces a plain text completion for a system and user prompt.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ReportUpdater reads and transitions reports for the email status flow.
type ReportUpdater interface {
	Get(ctx context.Context, id uuid.UUID) (*reports.Report, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, newStatus, notes string) (*reports.Report, error)
}

const (
	inspirationCacheTTL = 10 * time.Minute
	inspirationSources  = 5

	// fallbackQuote keeps the endpoint useful when the model is down.
	fallbackQuote = "Every report is a seed. A cleaner, safer neighborhood grows from the people who plant them."
)

// Service implements the inspiration quote and email status update flows.
type Service struct {
	completer Completer
	reports   ReportUpdater
	source    DescriptionSource
	log       *logger.Logger
	now       func() time.Time

	mu            sync.Mutex
	cachedQuote   string
	cachedQuoteAt time.Time
}

func NewService(completer Completer, updater ReportUpdater, source DescriptionSource, log *logger.Logger) *Service {
	return &Service{
		completer: completer,
		reports:   updater,
		source:    source,
		log:       log,
		now:       time.Now,
	}
}

// Inspiration returns an environmental quote themed on recent reports. The
// quote is cached for ten minutes; model failures fall back to a canned quote
// rather than erroring the endpoint.
func (s *Service) Inspiration(ctx context.Context) string {
	s.mu.Lock()
	if s.cachedQuote != "" && s.now().Sub(s.cachedQuoteAt) < inspirationCacheTTL {
		quote := s.cachedQuote
		s.mu.Unlock()
		return quote
	}
	s.mu.Unlock()

	quote := s.generateQuote(ctx)

	s.mu.Lock()
	s.cachedQuote = quote
	s.cachedQuoteAt = s.now()
	s.mu.Unlock()

	return quote
}

func (s *Service) generateQuote(ctx context.Context) string {
	descriptions, err := s.source.RecentDescriptions(ctx, inspirationSources)
	if err != nil {
		s.log.Warn("inspiration: failed to load recent reports", "error", err)
		descriptions = nil
	}
	if len(descriptions) == 0 {
		descriptions = []string{"keeping public spaces clean and safe"}
	}

	system, user := buildInspirationPrompt(descriptions)
	quote, err := s.completer.Complete(ctx, system, user)
	if err != nil {
		s.log.Warn("inspiration: completion failed", "error", err)
		return fallbackQuote
	}

	quote = strings.Trim(strings.TrimSpace(quote), `"`)
	if quote == "" {
		return fallbackQuote
	}
	return quote
}

// EmailStatusInput is one inbound status email routed to a report.
type EmailStatusInput struct {
	ReportID uuid.UUID
	Subject  string
	Body     string
}

// EmailStatusResult reports what the email did to the report.
type EmailStatusResult struct {
	ReportID  uuid.UUID `json:"reportId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
	Changed   bool      `json:"changed"`
}

// ApplyEmailStatus asks the model whether the email moves the report to a new
// status and applies the transition when it does. An unrecognized model answer
// leaves the report untouched.
func (s *Service) ApplyEmailStatus(ctx context.Context, input EmailStatusInput) (*EmailStatusResult, error) {
	report, err := s.reports.Get(ctx, input.ReportID)
	if err != nil {
		return nil, err
	}

	system, user := buildStatusUpdatePrompt(
		report.Description,
		report.Status,
		renderHistory(report.History),
		input.Subject,
		input.Body,
	)

	answer, err := s.completer.Complete(ctx, system, user)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "status suggestion failed", err)
	}

	suggested := parseStatus(answer)
	if suggested == "" {
		s.log.Warn("email status: unrecognized model answer", "reportId", input.ReportID, "answer", answer)
		return &EmailStatusResult{
			ReportID:  report.ID,
			OldStatus: report.Status,
			NewStatus: report.Status,
			Changed:   false,
		}, nil
	}

	result := &EmailStatusResult{
		ReportID:  report.ID,
		OldStatus: report.Status,
		NewStatus: suggested,
	}
	if suggested == report.Status {
		return result, nil
	}

	notes := fmt.Sprintf("Status updated from email: %s", strings.TrimSpace(input.Subject))
	if _, err := s.reports.UpdateStatus(ctx, report.ID, suggested, notes); err != nil {
		return nil, err
	}
	result.Changed = true
	return result, nil
}

// parseStatus extracts one of the known statuses from a model answer. Exact
// matches win; otherwise the most advanced status mentioned is taken.
func parseStatus(answer string) string {
	trimmed := strings.TrimSpace(strings.Trim(strings.TrimSpace(answer), `".`))
	for _, status := range []string{reports.StatusSubmitted, reports.StatusInProgress, reports.StatusResolved} {
		if strings.EqualFold(trimmed, status) {
			return status
		}
	}

	lowered := strings.ToLower(answer)
	for _, status := range []string{reports.StatusResolved, reports.StatusInProgress, reports.StatusSubmitted} {
		if strings.Contains(lowered, strings.ToLower(status)) {
			return status
		}
	}
	return ""
}

func renderHistory(history []reports.HistoryEntry) string {
	if len(history) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(history))
	for _, entry := range history {
		part := fmt.Sprintf("%s at %s", entry.Status, entry.Timestamp.Format(time.RFC3339))
		if entry.Notes != "" {
			part += " (" + entry.Notes + ")"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "; ")
}
