// Package adapters connects modules without letting them import each other.
// Each adapter implements one consumer-side port on top of another module's
// service.
package adapters

import (
	"context"

	"github.com/google/uuid"

	"civicpulse_backend/internal/intake"
	"civicpulse_backend/internal/reports"
)

// whatsappPhotoHint marks photos that arrived through the hotline.
const whatsappPhotoHint = "whatsapp upload"

// IntakeReportSubmitter turns completed conversations into reports.
type IntakeReportSubmitter struct {
	reports *reports.Service
}

func NewIntakeReportSubmitter(svc *reports.Service) *IntakeReportSubmitter {
	return &IntakeReportSubmitter{reports: svc}
}

func (a *IntakeReportSubmitter) Submit(ctx context.Context, sub intake.ReportSubmission) (uuid.UUID, error) {
	input := reports.CreateInput{
		ReporterIdentity: sub.ReporterIdentity,
		Description:      sub.Description,
		PhotoURL:         sub.PhotoURL,
		Latitude:         sub.Latitude,
		Longitude:        sub.Longitude,
		Channel:          "whatsapp",
	}
	if sub.PhotoURL != "" {
		input.PhotoHint = whatsappPhotoHint
	}

	report, err := a.reports.Create(ctx, input)
	if err != nil {
		return uuid.Nil, err
	}
	return report.ID, nil
}
