package intake

import (
	"context"
	"fmt"
	"time"

	"civicpulse_backend/internal/events"
	"civicpulse_backend/platform/logger"

	"github.com/google/uuid"
)

// ReportSubmission carries everything needed to create a report from a
// completed conversation.
type ReportSubmission struct {
	ReporterIdentity string
	Description      string
	PhotoURL         string
	Latitude         *float64
	Longitude        *float64
}

// ReportSubmitter is the report-creation collaborator. Implementations apply
// the default location and icon policies.
type ReportSubmitter interface {
	Submit(ctx context.Context, sub ReportSubmission) (uuid.UUID, error)
}

// ReplySender delivers an outbound WhatsApp message. Failures are the
// caller's to absorb.
type ReplySender interface {
	SendMessage(ctx context.Context, to string, body string) error
}

// MediaMirrorEnqueuer schedules re-homing of provider-hosted media into our
// own storage. Optional; nil disables mirroring.
type MediaMirrorEnqueuer interface {
	EnqueueMediaMirror(ctx context.Context, reportID uuid.UUID, sourceURL string) error
}

// Service runs the conversation pipeline for one inbound message: load
// state, advance the machine, apply the side effect, then reply. State is
// always committed before the reply goes out, so a crash between the two
// loses at most a notification, never progress.
type Service struct {
	store     Store
	locks     *senderLocks
	submitter ReportSubmitter
	replies   ReplySender
	mirror    MediaMirrorEnqueuer
	bus       events.Bus
	log       *logger.Logger
	now       func() time.Time
}

func NewService(store Store, submitter ReportSubmitter, replies ReplySender, mirror MediaMirrorEnqueuer, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		locks:     newSenderLocks(),
		submitter: submitter,
		replies:   replies,
		mirror:    mirror,
		bus:       bus,
		log:       log,
		now:       time.Now,
	}
}

const replyStoreFailure = "Sorry, we're having trouble right now. Please try again in a moment."

// Process handles one authenticated inbound message from sender. The whole
// read-modify-write is serialized per sender.
func (s *Service) Process(ctx context.Context, sender string, msg Message) {
	unlock := s.locks.Lock(sender)
	defer unlock()

	stored, err := s.store.Get(ctx, sender)
	if err != nil {
		s.log.DatabaseError("conversation.get", err)
		s.reply(ctx, sender, replyStoreFailure)
		return
	}

	current := ConversationState{Step: StepStart}
	if stored != nil {
		current = *stored
	}

	tr := Advance(current, msg, s.now())
	reply := tr.Reply

	switch tr.Effect {
	case EffectPersist:
		if err := s.store.Set(ctx, sender, tr.Next); err != nil {
			s.log.DatabaseError("conversation.set", err)
			s.reply(ctx, sender, replyStoreFailure)
			return
		}

	case EffectDelete:
		if err := s.store.Delete(ctx, sender); err != nil {
			s.log.DatabaseError("conversation.delete", err)
			s.reply(ctx, sender, replyStoreFailure)
			return
		}
		s.bus.Publish(ctx, events.ConversationReset{
			BaseEvent: events.NewBaseEvent(),
			Sender:    sender,
			Step:      string(current.Step),
		})

	case EffectSubmit:
		reply = s.submit(ctx, sender, tr.Next)

	case EffectNone:
		// Re-prompt only; no store mutation.
	}

	s.log.ConversationEvent(sender, string(current.Step), string(tr.Next.Step), tr.Effect.String())
	s.reply(ctx, sender, reply)
}

// submit invokes the report adapter and deletes the conversation only after
// success. A failed submission keeps the collected answers so the sender can
// retry by sharing the location again.
func (s *Service) submit(ctx context.Context, sender string, completed ConversationState) string {
	reportID, err := s.submitter.Submit(ctx, ReportSubmission{
		ReporterIdentity: sender,
		Description:      completed.Description,
		PhotoURL:         completed.PhotoURL,
		Latitude:         completed.Latitude,
		Longitude:        completed.Longitude,
	})
	if err != nil {
		s.log.Error("report submission failed", "sender", sender, "error", err)
		return replySubmitFailed
	}

	if err := s.store.Delete(ctx, sender); err != nil {
		// The report exists; a leftover conversation record only costs the
		// sender one extra reset. Log and move on.
		s.log.DatabaseError("conversation.delete", err)
	}

	if s.mirror != nil && completed.PhotoURL != "" {
		if err := s.mirror.EnqueueMediaMirror(ctx, reportID, completed.PhotoURL); err != nil {
			s.log.Error("media mirror enqueue failed", "reportId", reportID, "error", err)
		}
	}

	s.bus.Publish(ctx, events.ConversationCompleted{
		BaseEvent: events.NewBaseEvent(),
		Sender:    sender,
		ReportID:  reportID,
		MediaURL:  completed.PhotoURL,
	})

	return fmt.Sprintf("Thank you! Your report has been submitted with ID %s. We'll keep you posted on its progress.", reportID)
}

// reply is best-effort: a delivery failure never rolls back or retries the
// committed transition.
func (s *Service) reply(ctx context.Context, to string, body string) {
	if body == "" {
		return
	}
	if err := s.replies.SendMessage(ctx, to, body); err != nil {
		s.log.DispatchError(to, err)
	}
}
