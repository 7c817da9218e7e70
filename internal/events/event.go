// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"civicpulse_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus re-exports the platform constructor.
var NewInMemoryBus = events.NewInMemoryBus

// =============================================================================
// Reports Domain Events
// =============================================================================

// ReportSubmitted is published when a new report is created, whether through
// the web API or the WhatsApp hotline.
type ReportSubmitted struct {
	BaseEvent
	ReportID         uuid.UUID `json:"reportId"`
	ReporterIdentity string    `json:"reporterIdentity"`
	Channel          string    `json:"channel"` // "web" or "whatsapp"
	Description      string    `json:"description"`
	IconName         string    `json:"iconName"`
}

func (e ReportSubmitted) EventName() string { return "reports.report.submitted" }

// ReportStatusChanged is published when an admin or the email hook moves a
// report to a new status.
type ReportStatusChanged struct {
	BaseEvent
	ReportID         uuid.UUID `json:"reportId"`
	ReporterIdentity string    `json:"reporterIdentity"`
	ReporterEmail    string    `json:"reporterEmail,omitempty"`
	Description      string    `json:"description"`
	OldStatus        string    `json:"oldStatus"`
	NewStatus        string    `json:"newStatus"`
	Notes            string    `json:"notes,omitempty"`
}

func (e ReportStatusChanged) EventName() string { return "reports.report.status_changed" }

// =============================================================================
// Intake Domain Events
// =============================================================================

// ConversationCompleted is published when a WhatsApp conversation reaches
// submission and produces a report.
type ConversationCompleted struct {
	BaseEvent
	Sender   string    `json:"sender"`
	ReportID uuid.UUID `json:"reportId"`
	MediaURL string    `json:"mediaUrl,omitempty"`
}

func (e ConversationCompleted) EventName() string { return "intake.conversation.completed" }

// ConversationReset is published when a sender cancels an in-progress
// conversation with a reset keyword.
type ConversationReset struct {
	BaseEvent
	Sender string `json:"sender"`
	Step   string `json:"step"`
}

func (e ConversationReset) EventName() string { return "intake.conversation.reset" }
