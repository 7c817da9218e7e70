// Package notification subscribes to domain events and fans status changes
// out to reporters: email for web accounts, WhatsApp for hotline reporters.
// Delivery is best effort; failures are logged and never surface to the
// operation that triggered them.
package notification

import (
	"context"
	"fmt"
	"strings"

	"civicpulse_backend/internal/events"
	"civicpulse_backend/platform/logger"
	"civicpulse_backend/platform/phone"
)

// WhatsAppSender sends a WhatsApp message to a reporter.
type WhatsAppSender interface {
	SendMessage(ctx context.Context, to string, body string) error
}

// Module routes ReportStatusChanged events to the right channel.
type Module struct {
	email    EmailSender
	whatsapp WhatsAppSender
	log      *logger.Logger
}

// NewModule wires the notification handlers onto the bus. Either sender may
// be nil when the channel is not configured; those notifications are skipped.
func NewModule(bus events.Bus, email EmailSender, whatsapp WhatsAppSender, log *logger.Logger) *Module {
	m := &Module{
		email:    email,
		whatsapp: whatsapp,
		log:      log,
	}

	bus.Subscribe(events.ReportStatusChanged{}.EventName(), events.HandlerFunc(m.handleStatusChanged))

	return m
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

func (m *Module) handleStatusChanged(ctx context.Context, event events.Event) error {
	changed, ok := event.(events.ReportStatusChanged)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	if changed.ReporterEmail != "" {
		m.notifyByEmail(ctx, changed)
		return nil
	}
	if isPhoneIdentity(changed.ReporterIdentity) {
		m.notifyByWhatsApp(ctx, changed)
		return nil
	}

	m.log.Debug("status change has no reachable reporter", "reportId", changed.ReportID)
	return nil
}

func (m *Module) notifyByEmail(ctx context.Context, changed events.ReportStatusChanged) {
	if m.email == nil {
		return
	}

	err := m.email.SendStatusUpdateEmail(ctx, changed.ReporterEmail, StatusUpdateEmailData{
		ReportID:    changed.ReportID.String(),
		Description: changed.Description,
		OldStatus:   changed.OldStatus,
		NewStatus:   changed.NewStatus,
		Notes:       changed.Notes,
	})
	if err != nil {
		m.log.Error("status email failed", "reportId", changed.ReportID, "error", err)
	}
}

func (m *Module) notifyByWhatsApp(ctx context.Context, changed events.ReportStatusChanged) {
	if m.whatsapp == nil {
		return
	}

	body := fmt.Sprintf("Update on your report %s: status changed from %s to %s.",
		changed.ReportID, changed.OldStatus, changed.NewStatus)
	if changed.Notes != "" {
		body += " " + changed.Notes
	}

	to := phone.WithChannel(changed.ReporterIdentity)
	if err := m.whatsapp.SendMessage(ctx, to, body); err != nil {
		m.log.DispatchError(to, err)
	}
}

// isPhoneIdentity reports whether a reporter identity is an E.164 number,
// which is how hotline reporters are recorded.
func isPhoneIdentity(identity string) bool {
	return strings.HasPrefix(identity, "+") && len(identity) > 5
}
