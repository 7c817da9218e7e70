package intake

import (
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func floatPtr(v float64) *float64 { return &v }

func TestResetKeywordsDeleteStateFromEveryStep(t *testing.T) {
	steps := []Step{StepStart, StepAwaitingPhoto, StepAwaitingDescription, StepAwaitingLocation, StepCompleted}
	keywords := []string{"reset", "cancel", "stop", "  STOP  ", "Cancel"}

	for _, step := range steps {
		for _, kw := range keywords {
			tr := Advance(ConversationState{Step: step}, Message{Body: kw}, testNow)
			if tr.Effect != EffectDelete {
				t.Fatalf("step %s keyword %q: effect = %s, want delete", step, kw, tr.Effect)
			}
			if tr.Reply == "" {
				t.Fatalf("step %s keyword %q: expected confirmation reply", step, kw)
			}
		}
	}
}

func TestStartWithGreetingAdvancesToAwaitingPhoto(t *testing.T) {
	for _, greeting := range []string{"hi", "hello", "report", "start", "  Report "} {
		tr := Advance(ConversationState{Step: StepStart}, Message{Body: greeting}, testNow)
		if tr.Next.Step != StepAwaitingPhoto {
			t.Fatalf("greeting %q: next step = %s, want %s", greeting, tr.Next.Step, StepAwaitingPhoto)
		}
		if tr.Effect != EffectPersist {
			t.Fatalf("greeting %q: effect = %s, want persist", greeting, tr.Effect)
		}
		if !strings.Contains(strings.ToLower(tr.Reply), "photo") {
			t.Fatalf("greeting %q: reply %q should ask for a photo", greeting, tr.Reply)
		}
	}
}

func TestStartWithNonGreetingStaysAtStartWithoutMutation(t *testing.T) {
	tr := Advance(ConversationState{Step: StepStart}, Message{Body: "what is this"}, testNow)
	if tr.Next.Step != StepStart {
		t.Fatalf("next step = %s, want START", tr.Next.Step)
	}
	if tr.Effect != EffectNone {
		t.Fatalf("effect = %s, want none", tr.Effect)
	}
	if tr.Reply == "" {
		t.Fatal("expected a welcome prompt")
	}
}

func TestAwaitingPhotoRequiresMedia(t *testing.T) {
	state := ConversationState{Step: StepAwaitingPhoto}

	tr := Advance(state, Message{Body: "here you go"}, testNow)
	if tr.Next.Step != StepAwaitingPhoto || tr.Effect != EffectNone {
		t.Fatalf("text without media should re-prompt, got step %s effect %s", tr.Next.Step, tr.Effect)
	}

	tr = Advance(state, Message{MediaURL: "http://x/img.jpg"}, testNow)
	if tr.Next.Step != StepAwaitingDescription {
		t.Fatalf("next step = %s, want %s", tr.Next.Step, StepAwaitingDescription)
	}
	if tr.Next.PhotoURL != "http://x/img.jpg" {
		t.Fatalf("photoUrl = %q, want stored media url", tr.Next.PhotoURL)
	}
	if tr.Effect != EffectPersist {
		t.Fatalf("effect = %s, want persist", tr.Effect)
	}
}

func TestAwaitingDescriptionRequiresText(t *testing.T) {
	state := ConversationState{Step: StepAwaitingDescription, PhotoURL: "http://x/img.jpg"}

	tr := Advance(state, Message{Body: "   "}, testNow)
	if tr.Next.Step != StepAwaitingDescription || tr.Effect != EffectNone {
		t.Fatalf("blank text should re-prompt, got step %s effect %s", tr.Next.Step, tr.Effect)
	}

	tr = Advance(state, Message{Body: "Broken streetlight on Elm St"}, testNow)
	if tr.Next.Step != StepAwaitingLocation {
		t.Fatalf("next step = %s, want %s", tr.Next.Step, StepAwaitingLocation)
	}
	if tr.Next.Description != "Broken streetlight on Elm St" {
		t.Fatalf("description = %q", tr.Next.Description)
	}
	if tr.Next.PhotoURL != "http://x/img.jpg" {
		t.Fatal("photoUrl must carry over")
	}
}

func TestAwaitingLocationRequiresBothCoordinates(t *testing.T) {
	state := ConversationState{
		Step:        StepAwaitingLocation,
		PhotoURL:    "http://x/img.jpg",
		Description: "pothole",
	}

	tr := Advance(state, Message{Latitude: floatPtr(12.9)}, testNow)
	if tr.Effect != EffectNone {
		t.Fatalf("partial coordinates should re-prompt, got effect %s", tr.Effect)
	}

	tr = Advance(state, Message{Latitude: floatPtr(12.9), Longitude: floatPtr(77.6)}, testNow)
	if tr.Effect != EffectSubmit {
		t.Fatalf("effect = %s, want submit", tr.Effect)
	}
	if tr.Next.Step != StepCompleted {
		t.Fatalf("next step = %s, want %s", tr.Next.Step, StepCompleted)
	}
	if tr.Next.Latitude == nil || *tr.Next.Latitude != 12.9 || tr.Next.Longitude == nil || *tr.Next.Longitude != 77.6 {
		t.Fatal("location must be captured on the completed state")
	}
}

func TestCompletedAndUnknownStepsBehaveAsStart(t *testing.T) {
	for _, step := range []Step{StepCompleted, Step("GARBAGE"), Step("")} {
		tr := Advance(ConversationState{Step: step}, Message{Body: "hello"}, testNow)
		if tr.Next.Step != StepAwaitingPhoto {
			t.Fatalf("step %q with greeting: next = %s, want %s", step, tr.Next.Step, StepAwaitingPhoto)
		}

		tr = Advance(ConversationState{Step: step}, Message{Body: "something else"}, testNow)
		if tr.Next.Step != StepStart || tr.Effect != EffectNone {
			t.Fatalf("step %q with non-greeting: next = %s effect %s, want START/none", step, tr.Next.Step, tr.Effect)
		}
	}
}

func TestAdvanceStampsUpdatedAt(t *testing.T) {
	tr := Advance(ConversationState{Step: StepStart}, Message{Body: "report"}, testNow)
	if !tr.Next.UpdatedAt.Equal(testNow) {
		t.Fatalf("updatedAt = %v, want %v", tr.Next.UpdatedAt, testNow)
	}
}
