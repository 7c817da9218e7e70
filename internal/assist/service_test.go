package assist

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"civicpulse_backend/internal/reports"
	"civicpulse_backend/platform/logger"
)

type fakeCompleter struct {
	answer string
	err    error
	calls  int
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	f.calls++
	return f.answer, f.err
}

type fakeUpdater struct {
	report      *reports.Report
	getErr      error
	updateCalls int
	lastStatus  string
	lastNotes   string
}

func (f *fakeUpdater) Get(ctx context.Context, id uuid.UUID) (*reports.Report, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copied := *f.report
	return &copied, nil
}

func (f *fakeUpdater) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus, notes string) (*reports.Report, error) {
	f.updateCalls++
	f.lastStatus = newStatus
	f.lastNotes = notes
	copied := *f.report
	copied.Status = newStatus
	return &copied, nil
}

type fakeSource struct {
	descriptions []string
	err          error
}

func (f *fakeSource) RecentDescriptions(ctx context.Context, limit int) ([]string, error) {
	return f.descriptions, f.err
}

func testReport() *reports.Report {
	return &reports.Report{
		ID:          uuid.New(),
		Description: "Large pothole on Main Street",
		Status:      reports.StatusSubmitted,
		History: []reports.HistoryEntry{
			{Status: reports.StatusSubmitted, Timestamp: time.Now(), Notes: "Report submitted via web"},
		},
	}
}

func newTestService(completer *fakeCompleter, updater *fakeUpdater) *Service {
	source := &fakeSource{descriptions: []string{"overflowing bins near the park"}}
	return NewService(completer, updater, source, logger.New("development"))
}

func TestInspirationCachesQuote(t *testing.T) {
	completer := &fakeCompleter{answer: "Small acts, repeated, remake a city."}
	svc := newTestService(completer, &fakeUpdater{report: testReport()})

	first := svc.Inspiration(context.Background())
	second := svc.Inspiration(context.Background())

	if first != "Small acts, repeated, remake a city." {
		t.Fatalf("quote = %q", first)
	}
	if second != first {
		t.Fatalf("second quote = %q, want cached %q", second, first)
	}
	if completer.calls != 1 {
		t.Fatalf("completer calls = %d, want 1", completer.calls)
	}
}

func TestInspirationRefreshesAfterTTL(t *testing.T) {
	completer := &fakeCompleter{answer: "Clean streets start with one report."}
	svc := newTestService(completer, &fakeUpdater{report: testReport()})

	base := time.Now()
	svc.now = func() time.Time { return base }
	svc.Inspiration(context.Background())

	svc.now = func() time.Time { return base.Add(inspirationCacheTTL + time.Second) }
	svc.Inspiration(context.Background())

	if completer.calls != 2 {
		t.Fatalf("completer calls = %d, want 2 after cache expiry", completer.calls)
	}
}

func TestInspirationFallsBackOnModelFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("model down")}
	svc := newTestService(completer, &fakeUpdater{report: testReport()})

	quote := svc.Inspiration(context.Background())
	if quote != fallbackQuote {
		t.Fatalf("quote = %q, want fallback", quote)
	}
}

func TestApplyEmailStatusTransitionsReport(t *testing.T) {
	completer := &fakeCompleter{answer: "Resolved"}
	updater := &fakeUpdater{report: testReport()}
	svc := newTestService(completer, updater)

	result, err := svc.ApplyEmailStatus(context.Background(), EmailStatusInput{
		ReportID: updater.report.ID,
		Subject:  "Work order 4417 closed",
		Body:     "The road crew has filled the pothole and closed the ticket.",
	})
	if err != nil {
		t.Fatalf("ApplyEmailStatus: %v", err)
	}

	if !result.Changed || result.NewStatus != reports.StatusResolved {
		t.Fatalf("result = %+v, want change to Resolved", result)
	}
	if updater.updateCalls != 1 {
		t.Fatalf("update calls = %d, want 1", updater.updateCalls)
	}
	if !strings.Contains(updater.lastNotes, "Work order 4417 closed") {
		t.Fatalf("notes = %q, want email subject included", updater.lastNotes)
	}
}

func TestApplyEmailStatusKeepsSameStatus(t *testing.T) {
	completer := &fakeCompleter{answer: "Submitted"}
	updater := &fakeUpdater{report: testReport()}
	svc := newTestService(completer, updater)

	result, err := svc.ApplyEmailStatus(context.Background(), EmailStatusInput{
		ReportID: updater.report.ID,
		Subject:  "Acknowledgement",
		Body:     "We have received your report.",
	})
	if err != nil {
		t.Fatalf("ApplyEmailStatus: %v", err)
	}

	if result.Changed {
		t.Fatalf("result = %+v, want no change", result)
	}
	if updater.updateCalls != 0 {
		t.Fatalf("update calls = %d, want 0", updater.updateCalls)
	}
}

func TestApplyEmailStatusIgnoresUnknownAnswer(t *testing.T) {
	completer := &fakeCompleter{answer: "maybe fixed soon"}
	updater := &fakeUpdater{report: testReport()}
	svc := newTestService(completer, updater)

	result, err := svc.ApplyEmailStatus(context.Background(), EmailStatusInput{
		ReportID: updater.report.ID,
		Subject:  "Update",
		Body:     "Hard to say.",
	})
	if err != nil {
		t.Fatalf("ApplyEmailStatus: %v", err)
	}

	if result.Changed || updater.updateCalls != 0 {
		t.Fatalf("result = %+v with %d updates, want untouched report", result, updater.updateCalls)
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		answer string
		want   string
	}{
		{"Resolved", reports.StatusResolved},
		{`"In Progress"`, reports.StatusInProgress},
		{"resolved.", reports.StatusResolved},
		{"The status should now be In Progress", reports.StatusInProgress},
		{"no idea", ""},
	}
	for _, tc := range cases {
		if got := parseStatus(tc.answer); got != tc.want {
			t.Fatalf("parseStatus(%q) = %q, want %q", tc.answer, got, tc.want)
		}
	}
}
