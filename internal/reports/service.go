package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civicpulse_backend/internal/events"
	"civicpulse_backend/platform/apperr"
	"civicpulse_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Store is the persistence collaborator for the reports service.
type Store interface {
	Create(ctx context.Context, report *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	List(ctx context.Context, limit, offset int) ([]Report, error)
	AppendStatus(ctx context.Context, id uuid.UUID, newStatus string, entry HistoryEntry) error
	Leaderboard(ctx context.Context) ([]LeaderboardEntry, error)
	Count(ctx context.Context) (int, error)
}

// IconSuggester proposes an icon for a description. Failures are non-fatal;
// the keyword classifier is the fallback.
type IconSuggester interface {
	SuggestIcon(ctx context.Context, description string) (string, error)
}

// EmailLookup resolves a registered user's email for notifications.
type EmailLookup interface {
	EmailForUser(ctx context.Context, userID uuid.UUID) (string, error)
}

// LocationDefaults supplies the fallback coordinate for reports submitted
// without a location.
type LocationDefaults interface {
	GetDefaultLatitude() float64
	GetDefaultLongitude() float64
}

// CreateInput carries everything needed to create a report.
type CreateInput struct {
	ReporterIdentity string
	ReporterUserID   *uuid.UUID
	Description      string
	PhotoURL         string
	Latitude         *float64
	Longitude        *float64
	PhotoHint        string
	Channel          string // "web" or "whatsapp"
}

// LeaderboardResult pairs the top reporters with the total report count.
type LeaderboardResult struct {
	Entries      []LeaderboardEntry `json:"entries"`
	TotalReports int                `json:"totalReports"`
}

// Service implements report use cases on top of the Store.
type Service struct {
	store    Store
	icons    IconSuggester
	emails   EmailLookup
	defaults LocationDefaults
	bus      events.Bus
	log      *logger.Logger
	now      func() time.Time
}

func NewService(store Store, defaults LocationDefaults, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		defaults: defaults,
		bus:      bus,
		log:      log,
		now:      time.Now,
	}
}

// SetIconSuggester wires the optional AI icon helper.
func (s *Service) SetIconSuggester(suggester IconSuggester) {
	s.icons = suggester
}

// SetEmailLookup wires the reporter email resolver for status notifications.
func (s *Service) SetEmailLookup(lookup EmailLookup) {
	s.emails = lookup
}

// Create validates the input, applies location and icon defaults, seeds the
// history trail, and persists the report.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Report, error) {
	if input.Description == "" {
		return nil, apperr.Validation("description is required")
	}

	identity := input.ReporterIdentity
	if identity == "" {
		identity = AnonymousReporter
	}

	lat := s.defaults.GetDefaultLatitude()
	lng := s.defaults.GetDefaultLongitude()
	if input.Latitude != nil && input.Longitude != nil {
		lat = *input.Latitude
		lng = *input.Longitude
	}

	now := s.now().UTC()
	report := &Report{
		ReporterIdentity: identity,
		ReporterUserID:   input.ReporterUserID,
		Description:      input.Description,
		PhotoURL:         input.PhotoURL,
		Latitude:         lat,
		Longitude:        lng,
		IconName:         s.classifyIcon(ctx, input.Description),
		Status:           StatusSubmitted,
		PhotoHint:        input.PhotoHint,
		History: []HistoryEntry{{
			Status:    StatusSubmitted,
			Timestamp: now,
			Notes:     seedNotes(input.Channel, identity),
		}},
	}

	if err := s.store.Create(ctx, report); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create report", err)
	}

	s.bus.Publish(ctx, events.ReportSubmitted{
		BaseEvent:        events.NewBaseEvent(),
		ReportID:         report.ID,
		ReporterIdentity: report.ReporterIdentity,
		Channel:          input.Channel,
		Description:      report.Description,
		IconName:         report.IconName,
	})

	return report, nil
}

func seedNotes(channel, identity string) string {
	if channel == "whatsapp" {
		return fmt.Sprintf("Report submitted via WhatsApp by %s", identity)
	}
	return "Report submitted via web"
}

// classifyIcon asks the AI suggester first and falls back to the keyword
// table. A suggester failure or unknown icon never fails the submission.
func (s *Service) classifyIcon(ctx context.Context, description string) string {
	if s.icons != nil {
		name, err := s.icons.SuggestIcon(ctx, description)
		if err == nil && KnownIcon(name) {
			return name
		}
		if err != nil {
			s.log.Warn("icon suggestion failed, using keyword classifier", "error", err)
		}
	}
	return ClassifyIcon(description)
}

// Get fetches a single report.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Report, error) {
	report, err := s.store.GetByID(ctx, id)
	if errors.Is(err, ErrReportNotFound) {
		return nil, apperr.NotFound("report not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load report", err)
	}
	return report, nil
}

// List returns reports newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Report, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	results, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list reports", err)
	}
	return results, nil
}

// UpdateStatus transitions a report to a new status, appending exactly one
// history entry. Same-status transitions are rejected.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus, notes string) (*Report, error) {
	if !ValidStatus(newStatus) {
		return nil, apperr.Validation("unknown status: " + newStatus)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == newStatus {
		return nil, apperr.Conflict("report is already " + newStatus)
	}

	entry := HistoryEntry{Status: newStatus, Timestamp: s.now().UTC(), Notes: notes}
	if err := s.store.AppendStatus(ctx, id, newStatus, entry); err != nil {
		if errors.Is(err, ErrReportNotFound) {
			return nil, apperr.NotFound("report not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to update report status", err)
	}

	s.bus.Publish(ctx, events.ReportStatusChanged{
		BaseEvent:        events.NewBaseEvent(),
		ReportID:         id,
		ReporterIdentity: current.ReporterIdentity,
		ReporterEmail:    s.reporterEmail(ctx, current),
		Description:      current.Description,
		OldStatus:        current.Status,
		NewStatus:        newStatus,
		Notes:            notes,
	})

	updated := *current
	updated.Status = newStatus
	updated.History = append(updated.History, entry)
	return &updated, nil
}

func (s *Service) reporterEmail(ctx context.Context, report *Report) string {
	if s.emails == nil || report.ReporterUserID == nil {
		return ""
	}
	email, err := s.emails.EmailForUser(ctx, *report.ReporterUserID)
	if err != nil {
		s.log.Warn("reporter email lookup failed", "reportId", report.ID, "error", err)
		return ""
	}
	return email
}

// Leaderboard computes the top reporters and the overall report count. The
// two aggregations are independent, so they run concurrently.
func (s *Service) Leaderboard(ctx context.Context) (*LeaderboardResult, error) {
	var result LeaderboardResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, err := s.store.Leaderboard(gctx)
		if err != nil {
			return err
		}
		result.Entries = entries
		return nil
	})
	g.Go(func() error {
		count, err := s.store.Count(gctx)
		if err != nil {
			return err
		}
		result.TotalReports = count
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to compute leaderboard", err)
	}
	return &result, nil
}
