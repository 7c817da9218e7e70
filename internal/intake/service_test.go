package intake

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"civicpulse_backend/internal/events"
	"civicpulse_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeStore is an in-memory Store without staleness handling; tests control
// state explicitly.
type fakeStore struct {
	mu     sync.Mutex
	states map[string]ConversationState
	getErr error
	setErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: make(map[string]ConversationState)}
}

func (f *fakeStore) Get(_ context.Context, sender string) (*ConversationState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	state, ok := f.states[sender]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (f *fakeStore) Set(_ context.Context, sender string, state ConversationState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.states[sender] = state
	return nil
}

func (f *fakeStore) Delete(_ context.Context, sender string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.states, sender)
	return nil
}

type fakeSubmitter struct {
	mu          sync.Mutex
	submissions []ReportSubmission
	err         error
	id          uuid.UUID
}

func (f *fakeSubmitter) Submit(_ context.Context, sub ReportSubmission) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return uuid.Nil, f.err
	}
	f.submissions = append(f.submissions, sub)
	return f.id, nil
}

type fakeReplies struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeReplies) SendMessage(_ context.Context, _ string, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, body)
	return f.err
}

func (f *fakeReplies) last(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		t.Fatal("expected at least one reply")
	}
	return f.messages[len(f.messages)-1]
}

type nopBus struct{}

func (nopBus) Publish(context.Context, events.Event)          {}
func (nopBus) PublishSync(context.Context, events.Event) error { return nil }
func (nopBus) Subscribe(string, events.Handler)               {}

func newTestService(store Store, submitter ReportSubmitter, replies ReplySender) *Service {
	return NewService(store, submitter, replies, nil, nopBus{}, logger.New("development"))
}

const testSender = "+15550001111"

func TestHappyPathCollectsAllFieldsAndDeletesState(t *testing.T) {
	store := newFakeStore()
	submitter := &fakeSubmitter{id: uuid.New()}
	replies := &fakeReplies{}
	svc := newTestService(store, submitter, replies)
	ctx := context.Background()

	svc.Process(ctx, testSender, Message{Body: "Report"})
	svc.Process(ctx, testSender, Message{MediaURL: "http://x/img.jpg"})
	svc.Process(ctx, testSender, Message{Body: "Broken streetlight on Elm St"})
	svc.Process(ctx, testSender, Message{Latitude: floatPtr(12.9), Longitude: floatPtr(77.6)})

	if len(submitter.submissions) != 1 {
		t.Fatalf("submissions = %d, want 1", len(submitter.submissions))
	}
	sub := submitter.submissions[0]
	if sub.Description != "Broken streetlight on Elm St" || sub.PhotoURL != "http://x/img.jpg" {
		t.Fatalf("submission carried wrong fields: %+v", sub)
	}
	if sub.Latitude == nil || *sub.Latitude != 12.9 || sub.Longitude == nil || *sub.Longitude != 77.6 {
		t.Fatalf("submission location wrong: %+v", sub)
	}
	if sub.ReporterIdentity != testSender {
		t.Fatalf("reporter = %q, want sender", sub.ReporterIdentity)
	}

	if state, _ := store.Get(ctx, testSender); state != nil {
		t.Fatalf("conversation state should be deleted after submission, got %+v", state)
	}
	if got := replies.last(t); !strings.Contains(got, submitter.id.String()) {
		t.Fatalf("final reply %q should contain report id %s", got, submitter.id)
	}
}

func TestFailedSubmissionKeepsState(t *testing.T) {
	store := newFakeStore()
	store.states[testSender] = ConversationState{
		Step:        StepAwaitingLocation,
		PhotoURL:    "http://x/img.jpg",
		Description: "pothole",
		UpdatedAt:   time.Now(),
	}
	submitter := &fakeSubmitter{err: errors.New("db down")}
	replies := &fakeReplies{}
	svc := newTestService(store, submitter, replies)
	ctx := context.Background()

	svc.Process(ctx, testSender, Message{Latitude: floatPtr(1), Longitude: floatPtr(2)})

	state, _ := store.Get(ctx, testSender)
	if state == nil || state.Step != StepAwaitingLocation {
		t.Fatalf("state should survive a failed submission, got %+v", state)
	}
	if got := replies.last(t); got != replySubmitFailed {
		t.Fatalf("reply = %q, want failure notice", got)
	}

	// Retry with the location again succeeds and cleans up.
	submitter.err = nil
	submitter.id = uuid.New()
	svc.Process(ctx, testSender, Message{Latitude: floatPtr(1), Longitude: floatPtr(2)})
	if state, _ := store.Get(ctx, testSender); state != nil {
		t.Fatal("state should be deleted after successful retry")
	}
}

func TestResetDeletesStateAndConfirms(t *testing.T) {
	store := newFakeStore()
	store.states[testSender] = ConversationState{Step: StepAwaitingDescription, PhotoURL: "http://x/a.jpg", UpdatedAt: time.Now()}
	replies := &fakeReplies{}
	svc := newTestService(store, &fakeSubmitter{}, replies)

	svc.Process(context.Background(), testSender, Message{Body: "cancel"})

	if state, _ := store.Get(context.Background(), testSender); state != nil {
		t.Fatal("reset should delete conversation state")
	}
	if got := replies.last(t); got != replyResetDone {
		t.Fatalf("reply = %q, want reset confirmation", got)
	}
}

func TestNonGreetingAtStartDoesNotMutateStore(t *testing.T) {
	store := newFakeStore()
	replies := &fakeReplies{}
	svc := newTestService(store, &fakeSubmitter{}, replies)

	svc.Process(context.Background(), testSender, Message{Body: "what is this?"})

	if len(store.states) != 0 {
		t.Fatal("no store mutation expected for a non-greeting at START")
	}
	if got := replies.last(t); got != replyWelcome {
		t.Fatalf("reply = %q, want welcome prompt", got)
	}
}

func TestReplayAfterCompletionBehavesAsFreshStart(t *testing.T) {
	store := newFakeStore()
	submitter := &fakeSubmitter{id: uuid.New()}
	replies := &fakeReplies{}
	svc := newTestService(store, submitter, replies)
	ctx := context.Background()

	locMsg := Message{Latitude: floatPtr(1), Longitude: floatPtr(2)}
	store.states[testSender] = ConversationState{
		Step:        StepAwaitingLocation,
		PhotoURL:    "http://x/a.jpg",
		Description: "pothole",
		UpdatedAt:   time.Now(),
	}

	svc.Process(ctx, testSender, locMsg)
	svc.Process(ctx, testSender, locMsg)

	if len(submitter.submissions) != 1 {
		t.Fatalf("replay must not double-submit, got %d submissions", len(submitter.submissions))
	}
	if got := replies.last(t); got != replyWelcome {
		t.Fatalf("replayed message should get the fresh-start prompt, got %q", got)
	}
}

func TestStoreFailureDoesNotAdvanceConversation(t *testing.T) {
	store := newFakeStore()
	store.setErr = errors.New("write refused")
	replies := &fakeReplies{}
	svc := newTestService(store, &fakeSubmitter{}, replies)

	svc.Process(context.Background(), testSender, Message{Body: "report"})

	if len(store.states) != 0 {
		t.Fatal("failed write must not leave partial state")
	}
	if got := replies.last(t); got != replyStoreFailure {
		t.Fatalf("reply = %q, want store failure notice", got)
	}
}

func TestReplyFailureDoesNotAffectCommittedState(t *testing.T) {
	store := newFakeStore()
	replies := &fakeReplies{err: errors.New("transport down")}
	svc := newTestService(store, &fakeSubmitter{}, replies)
	ctx := context.Background()

	svc.Process(ctx, testSender, Message{Body: "report"})

	state, _ := store.Get(ctx, testSender)
	if state == nil || state.Step != StepAwaitingPhoto {
		t.Fatalf("state should be committed despite reply failure, got %+v", state)
	}
}

// slowStore delays Get to widen the read-modify-write window.
type slowStore struct {
	*fakeStore
	delay time.Duration
}

func (s *slowStore) Get(ctx context.Context, sender string) (*ConversationState, error) {
	time.Sleep(s.delay)
	return s.fakeStore.Get(ctx, sender)
}

func TestConcurrentMessagesFromOneSenderAreSerialized(t *testing.T) {
	store := &slowStore{fakeStore: newFakeStore(), delay: 10 * time.Millisecond}
	store.states[testSender] = ConversationState{Step: StepAwaitingPhoto, UpdatedAt: time.Now()}
	replies := &fakeReplies{}
	svc := newTestService(store, &fakeSubmitter{}, replies)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Process(ctx, testSender, Message{MediaURL: "http://x/img.jpg"})
		}()
	}
	wg.Wait()

	// Serialized handling: the first message advances to AWAITING_DESCRIPTION,
	// the second sees that step and re-prompts without clobbering the photo.
	state, _ := store.Get(ctx, testSender)
	if state == nil || state.Step != StepAwaitingDescription {
		t.Fatalf("state = %+v, want AWAITING_DESCRIPTION", state)
	}
	if state.PhotoURL != "http://x/img.jpg" {
		t.Fatalf("photoUrl = %q, want preserved", state.PhotoURL)
	}
}
