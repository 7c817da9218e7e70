package intake

import (
	"strings"
	"time"
)

// Step identifies which piece of information the conversation is currently
// soliciting from the sender.
type Step string

const (
	StepStart               Step = "START"
	StepAwaitingPhoto       Step = "AWAITING_PHOTO"
	StepAwaitingDescription Step = "AWAITING_DESCRIPTION"
	StepAwaitingLocation    Step = "AWAITING_LOCATION"
	StepCompleted           Step = "COMPLETED"
)

// ConversationState is the durable record of a sender's progress through the
// report-collection flow. One record per sender identity.
type ConversationState struct {
	Step        Step      `json:"step"`
	PhotoURL    string    `json:"photoUrl,omitempty"`
	Description string    `json:"description,omitempty"`
	Latitude    *float64  `json:"lat,omitempty"`
	Longitude   *float64  `json:"lng,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Message is one inbound WhatsApp message after form decoding.
type Message struct {
	Body      string
	MediaURL  string
	Latitude  *float64
	Longitude *float64
}

// Effect tells the caller which side effect the transition requires.
type Effect int

const (
	// EffectNone leaves the stored state untouched.
	EffectNone Effect = iota
	// EffectPersist writes the new state to the store.
	EffectPersist
	// EffectDelete removes the stored state.
	EffectDelete
	// EffectSubmit submits the collected report, then removes the state on
	// success. On submission failure the state must be kept.
	EffectSubmit
)

func (e Effect) String() string {
	switch e {
	case EffectPersist:
		return "persist"
	case EffectDelete:
		return "delete"
	case EffectSubmit:
		return "submit"
	default:
		return "none"
	}
}

// Transition is the outcome of one inbound message: the next state, the reply
// to send, and the side effect to apply.
type Transition struct {
	Next   ConversationState
	Reply  string
	Effect Effect
}

var (
	resetKeywords = map[string]bool{"reset": true, "cancel": true, "stop": true}
	greetings     = map[string]bool{"hi": true, "hello": true, "report": true, "start": true}
)

const (
	replyWelcome       = "Welcome to the civic issue hotline! Send \"report\" to file a new issue, or \"stop\" to cancel at any time."
	replyAskPhoto      = "Let's file your report. First, please send a photo of the issue."
	replyNeedPhoto     = "I still need a photo to continue. Please attach one, or send \"cancel\" to stop."
	replyAskDesc       = "Got the photo. Now send a short description of the issue."
	replyNeedDesc      = "Please describe the issue in a short message."
	replyAskLocation   = "Thanks. Finally, share your location (use the attach > location option), or we will use a default area."
	replyNeedLocation  = "I still need the location. Share it via attach > location, or send \"cancel\" to stop."
	replyResetDone     = "Okay, I've cancelled this report. Send \"report\" whenever you want to start a new one."
	replySubmitFailed  = "Sorry, something went wrong while submitting your report. Your answers are saved. Please share the location again to retry."
)

// Advance is the pure decision function for the conversation flow. It never
// touches the store or the transport. now is injected for staleness handling
// in callers and for stamping UpdatedAt.
func Advance(current ConversationState, msg Message, now time.Time) Transition {
	body := strings.ToLower(strings.TrimSpace(msg.Body))

	// Reset keywords short-circuit every step.
	if resetKeywords[body] {
		return Transition{
			Next:   ConversationState{Step: StepStart, UpdatedAt: now},
			Reply:  replyResetDone,
			Effect: EffectDelete,
		}
	}

	switch current.Step {
	case StepAwaitingPhoto:
		if msg.MediaURL == "" {
			return Transition{Next: current, Reply: replyNeedPhoto, Effect: EffectNone}
		}
		next := current
		next.Step = StepAwaitingDescription
		next.PhotoURL = msg.MediaURL
		next.UpdatedAt = now
		return Transition{Next: next, Reply: replyAskDesc, Effect: EffectPersist}

	case StepAwaitingDescription:
		if strings.TrimSpace(msg.Body) == "" {
			return Transition{Next: current, Reply: replyNeedDesc, Effect: EffectNone}
		}
		next := current
		next.Step = StepAwaitingLocation
		next.Description = strings.TrimSpace(msg.Body)
		next.UpdatedAt = now
		return Transition{Next: next, Reply: replyAskLocation, Effect: EffectPersist}

	case StepAwaitingLocation:
		if msg.Latitude == nil || msg.Longitude == nil {
			return Transition{Next: current, Reply: replyNeedLocation, Effect: EffectNone}
		}
		next := current
		next.Step = StepCompleted
		next.Latitude = msg.Latitude
		next.Longitude = msg.Longitude
		next.UpdatedAt = now
		return Transition{Next: next, Reply: "", Effect: EffectSubmit}

	case StepStart:
		return startTransition(body, now)

	default:
		// COMPLETED or an unrecognized stored value: treat as a fresh START.
		return startTransition(body, now)
	}
}

func startTransition(body string, now time.Time) Transition {
	if greetings[body] {
		return Transition{
			Next:   ConversationState{Step: StepAwaitingPhoto, UpdatedAt: now},
			Reply:  replyAskPhoto,
			Effect: EffectPersist,
		}
	}
	return Transition{
		Next:   ConversationState{Step: StepStart, UpdatedAt: now},
		Reply:  replyWelcome,
		Effect: EffectNone,
	}
}
