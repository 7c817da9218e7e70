package jobs

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"civicpulse_backend/platform/apperr"
	"civicpulse_backend/platform/logger"
)

type fakeFetcher struct {
	data        []byte
	contentType string
	err         error
}

func (f *fakeFetcher) FetchMedia(ctx context.Context, mediaURL string) ([]byte, string, error) {
	return f.data, f.contentType, f.err
}

type fakePhotoStore struct {
	validateErr error
	uploadErr   error
	uploadedURL string
	folder      string
	contentType string
}

func (f *fakePhotoStore) ValidateUpload(contentType string, size int64) error {
	return f.validateErr
}

func (f *fakePhotoStore) UploadPhoto(ctx context.Context, folder, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	f.folder = folder
	f.contentType = contentType
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return f.uploadedURL, nil
}

type fakePhotoUpdater struct {
	calls   int
	lastID  uuid.UUID
	lastURL string
	err     error
}

func (f *fakePhotoUpdater) UpdatePhotoURL(ctx context.Context, id uuid.UUID, photoURL string) error {
	f.calls++
	f.lastID = id
	f.lastURL = photoURL
	return f.err
}

type fakeSweeper struct {
	removed int
	err     error
}

func (f *fakeSweeper) SweepStale(ctx context.Context) (int, error) {
	return f.removed, f.err
}

func newTestWorker(fetcher *fakeFetcher, photos *fakePhotoStore, updater *fakePhotoUpdater, sweeper *fakeSweeper) *Worker {
	return &Worker{
		fetcher: fetcher,
		photos:  photos,
		reports: updater,
		sweeper: sweeper,
		log:     logger.New("development"),
	}
}

func mirrorTask(t *testing.T, reportID, sourceURL string) *asynq.Task {
	t.Helper()
	task, err := NewMediaMirrorTask(MediaMirrorPayload{ReportID: reportID, SourceURL: sourceURL})
	if err != nil {
		t.Fatalf("NewMediaMirrorTask: %v", err)
	}
	return task
}

func TestMediaMirrorRehomesPhoto(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte{0xFF, 0xD8, 0xFF, 0xD9}, contentType: "image/jpeg"}
	photos := &fakePhotoStore{uploadedURL: "https://cdn.example.com/photos/whatsapp/photo_abc.jpg"}
	updater := &fakePhotoUpdater{}
	w := newTestWorker(fetcher, photos, updater, nil)

	reportID := uuid.New()
	task := mirrorTask(t, reportID.String(), "https://api.twilio.com/media/ME123")

	if err := w.handleMediaMirror(context.Background(), task); err != nil {
		t.Fatalf("handleMediaMirror: %v", err)
	}

	if photos.folder != "whatsapp" || photos.contentType != "image/jpeg" {
		t.Fatalf("upload folder = %q contentType = %q", photos.folder, photos.contentType)
	}
	if updater.calls != 1 || updater.lastID != reportID || updater.lastURL != photos.uploadedURL {
		t.Fatalf("updater = %+v", updater)
	}
}

func TestMediaMirrorRetriesFetchFailures(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("provider timeout")}
	w := newTestWorker(fetcher, &fakePhotoStore{}, &fakePhotoUpdater{}, nil)

	err := w.handleMediaMirror(context.Background(), mirrorTask(t, uuid.New().String(), "https://api.twilio.com/media/ME123"))
	if err == nil {
		t.Fatal("expected error for retry")
	}
	if errors.Is(err, asynq.SkipRetry) {
		t.Fatal("transient fetch failure must stay retryable")
	}
}

func TestMediaMirrorSkipsUnsupportedMedia(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("GIF89a"), contentType: "image/gif"}
	photos := &fakePhotoStore{validateErr: apperr.Validation("unsupported content type: image/gif")}
	updater := &fakePhotoUpdater{}
	w := newTestWorker(fetcher, photos, updater, nil)

	err := w.handleMediaMirror(context.Background(), mirrorTask(t, uuid.New().String(), "https://api.twilio.com/media/ME123"))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("err = %v, want SkipRetry", err)
	}
	if updater.calls != 0 {
		t.Fatalf("updater calls = %d, want 0", updater.calls)
	}
}

func TestMediaMirrorRejectsMalformedPayload(t *testing.T) {
	w := newTestWorker(&fakeFetcher{}, &fakePhotoStore{}, &fakePhotoUpdater{}, nil)

	err := w.handleMediaMirror(context.Background(), asynq.NewTask(TaskMediaMirror, []byte("{not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("err = %v, want SkipRetry", err)
	}
}

func TestConversationSweepReportsRemovals(t *testing.T) {
	w := newTestWorker(nil, nil, nil, &fakeSweeper{removed: 3})

	if err := w.handleConversationSweep(context.Background(), NewConversationSweepTask()); err != nil {
		t.Fatalf("handleConversationSweep: %v", err)
	}
}

func TestConversationSweepPropagatesErrors(t *testing.T) {
	w := newTestWorker(nil, nil, nil, &fakeSweeper{err: errors.New("redis down")})

	if err := w.handleConversationSweep(context.Background(), NewConversationSweepTask()); err == nil {
		t.Fatal("expected sweep error")
	}
}
