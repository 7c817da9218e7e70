package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"civicpulse_backend/internal/events"
	"civicpulse_backend/platform/apperr"
	"civicpulse_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeReportStore struct {
	reports  map[uuid.UUID]*Report
	appended []HistoryEntry
	entries  []LeaderboardEntry
	count    int
	createErr error
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{reports: make(map[uuid.UUID]*Report)}
}

func (f *fakeReportStore) Create(_ context.Context, report *Report) error {
	if f.createErr != nil {
		return f.createErr
	}
	report.ID = uuid.New()
	report.CreatedAt = time.Now()
	stored := *report
	f.reports[report.ID] = &stored
	return nil
}

func (f *fakeReportStore) GetByID(_ context.Context, id uuid.UUID) (*Report, error) {
	report, ok := f.reports[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	copied := *report
	return &copied, nil
}

func (f *fakeReportStore) List(_ context.Context, limit, offset int) ([]Report, error) {
	results := make([]Report, 0, len(f.reports))
	for _, r := range f.reports {
		results = append(results, *r)
	}
	return results, nil
}

func (f *fakeReportStore) AppendStatus(_ context.Context, id uuid.UUID, newStatus string, entry HistoryEntry) error {
	report, ok := f.reports[id]
	if !ok {
		return ErrReportNotFound
	}
	report.Status = newStatus
	report.History = append(report.History, entry)
	f.appended = append(f.appended, entry)
	return nil
}

func (f *fakeReportStore) Leaderboard(_ context.Context) ([]LeaderboardEntry, error) {
	return f.entries, nil
}

func (f *fakeReportStore) Count(_ context.Context) (int, error) {
	return f.count, nil
}

type staticDefaults struct{}

func (staticDefaults) GetDefaultLatitude() float64  { return 23.61 }
func (staticDefaults) GetDefaultLongitude() float64 { return 85.27 }

type nopBus struct{}

func (nopBus) Publish(context.Context, events.Event)           {}
func (nopBus) PublishSync(context.Context, events.Event) error { return nil }
func (nopBus) Subscribe(string, events.Handler)                {}

type fakeSuggester struct {
	icon string
	err  error
}

func (f fakeSuggester) SuggestIcon(context.Context, string) (string, error) {
	return f.icon, f.err
}

func newTestService(store Store) *Service {
	return NewService(store, staticDefaults{}, nopBus{}, logger.New("development"))
}

func TestCreateSeedsHistoryAndAppliesDefaults(t *testing.T) {
	store := newFakeReportStore()
	svc := newTestService(store)

	report, err := svc.Create(context.Background(), CreateInput{
		ReporterIdentity: "+15550001111",
		Description:      "Streetlight out on Elm St",
		PhotoURL:         "http://x/img.jpg",
		Channel:          "whatsapp",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if report.Latitude != 23.61 || report.Longitude != 85.27 {
		t.Fatalf("default location not applied: %f,%f", report.Latitude, report.Longitude)
	}
	if report.IconName != "LightbulbOff" {
		t.Fatalf("icon = %q, want LightbulbOff via keyword", report.IconName)
	}
	if report.Status != StatusSubmitted {
		t.Fatalf("status = %q, want Submitted", report.Status)
	}
	if len(report.History) != 1 || report.History[0].Status != StatusSubmitted {
		t.Fatalf("history not seeded: %+v", report.History)
	}
	if report.History[0].Notes != "Report submitted via WhatsApp by +15550001111" {
		t.Fatalf("seed notes = %q", report.History[0].Notes)
	}
}

func TestCreateRequiresDescription(t *testing.T) {
	svc := newTestService(newFakeReportStore())

	_, err := svc.Create(context.Background(), CreateInput{Channel: "web"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestCreateUsesProvidedLocation(t *testing.T) {
	svc := newTestService(newFakeReportStore())

	lat, lng := 12.9, 77.6
	report, err := svc.Create(context.Background(), CreateInput{
		Description: "pothole",
		Latitude:    &lat,
		Longitude:   &lng,
		Channel:     "web",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if report.Latitude != 12.9 || report.Longitude != 77.6 {
		t.Fatalf("location = %f,%f, want provided values", report.Latitude, report.Longitude)
	}
	if report.ReporterIdentity != AnonymousReporter {
		t.Fatalf("identity = %q, want anonymous stand-in", report.ReporterIdentity)
	}
}

func TestCreateSurfacesPersistenceFailure(t *testing.T) {
	store := newFakeReportStore()
	store.createErr = errors.New("insert refused")
	svc := newTestService(store)

	_, err := svc.Create(context.Background(), CreateInput{Description: "pothole", Channel: "web"})
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("err = %v, want internal error", err)
	}
}

func TestIconSuggesterFailureFallsBackToKeywords(t *testing.T) {
	svc := newTestService(newFakeReportStore())
	svc.SetIconSuggester(fakeSuggester{err: errors.New("model timeout")})

	report, err := svc.Create(context.Background(), CreateInput{Description: "graffiti everywhere", Channel: "web"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if report.IconName != "SprayCan" {
		t.Fatalf("icon = %q, want keyword fallback SprayCan", report.IconName)
	}
}

func TestIconSuggesterUnknownIconIsIgnored(t *testing.T) {
	svc := newTestService(newFakeReportStore())
	svc.SetIconSuggester(fakeSuggester{icon: "Rocket"})

	report, err := svc.Create(context.Background(), CreateInput{Description: "pothole on main road", Channel: "web"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if report.IconName != "Car" {
		t.Fatalf("icon = %q, want Car", report.IconName)
	}
}

func TestUpdateStatusAppendsExactlyOneEntry(t *testing.T) {
	store := newFakeReportStore()
	svc := newTestService(store)

	created, err := svc.Create(context.Background(), CreateInput{Description: "pothole", Channel: "web"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.UpdateStatus(context.Background(), created.ID, StatusInProgress, "crew dispatched")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != StatusInProgress {
		t.Fatalf("status = %q, want In Progress", updated.Status)
	}
	if len(store.appended) != 1 {
		t.Fatalf("appended entries = %d, want 1", len(store.appended))
	}
	if store.appended[0].Status != StatusInProgress {
		t.Fatalf("history entry status = %q, must match new status", store.appended[0].Status)
	}
	if len(updated.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(updated.History))
	}
}

func TestUpdateStatusRejectsSameStatus(t *testing.T) {
	store := newFakeReportStore()
	svc := newTestService(store)

	created, _ := svc.Create(context.Background(), CreateInput{Description: "pothole", Channel: "web"})

	_, err := svc.UpdateStatus(context.Background(), created.ID, StatusSubmitted, "")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if len(store.appended) != 0 {
		t.Fatal("rejected transition must not append history")
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc := newTestService(newFakeReportStore())

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), "Archived", "")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestUpdateStatusMissingReportIsNotFound(t *testing.T) {
	svc := newTestService(newFakeReportStore())

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), StatusResolved, "")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestLeaderboardCombinesEntriesAndCount(t *testing.T) {
	store := newFakeReportStore()
	store.entries = []LeaderboardEntry{
		{ReporterIdentity: "+15550001111", ReportCount: 3, Score: 21},
		{ReporterIdentity: "+15550002222", ReportCount: 2, Score: 11},
	}
	store.count = 5
	svc := newTestService(store)

	result, err := svc.Leaderboard(context.Background())
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(result.Entries) != 2 || result.TotalReports != 5 {
		t.Fatalf("result = %+v", result)
	}
}
