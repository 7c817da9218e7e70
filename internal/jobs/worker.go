package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"civicpulse_backend/platform/apperr"
	"civicpulse_backend/platform/config"
	"civicpulse_backend/platform/logger"
)

// sweepInterval is how often the stale-conversation sweep runs.
const sweepInterval = "@every 5m"

// MediaFetcher downloads provider-hosted media with provider credentials.
type MediaFetcher interface {
	FetchMedia(ctx context.Context, mediaURL string) (data []byte, contentType string, err error)
}

// PhotoStore persists a photo and returns its public URL.
type PhotoStore interface {
	ValidateUpload(contentType string, size int64) error
	UploadPhoto(ctx context.Context, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)
}

// ReportPhotoUpdater re-points a report at its mirrored photo.
type ReportPhotoUpdater interface {
	UpdatePhotoURL(ctx context.Context, id uuid.UUID, photoURL string) error
}

// ConversationSweeper removes stale conversation state.
type ConversationSweeper interface {
	SweepStale(ctx context.Context) (int, error)
}

// Worker processes background tasks from the queue.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	fetcher MediaFetcher
	photos  PhotoStore
	reports ReportPhotoUpdater
	sweeper ConversationSweeper
	log     *logger.Logger
}

// NewWorker builds the task worker. The fetcher and photo store may be nil
// when their providers are not configured; affected tasks then fail and are
// retried once the deployment is fixed.
func NewWorker(cfg config.RedisConfig, fetcher MediaFetcher, photos PhotoStore, reports ReportPhotoUpdater, sweeper ConversationSweeper, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		fetcher: fetcher,
		photos:  photos,
		reports: reports,
		sweeper: sweeper,
		log:     log,
	}

	mux.HandleFunc(TaskMediaMirror, w.handleMediaMirror)
	mux.HandleFunc(TaskConversationSweep, w.handleConversationSweep)

	return w, nil
}

// Run blocks processing tasks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("task worker stopped", "error", err)
	}
}

func (w *Worker) handleMediaMirror(ctx context.Context, task *asynq.Task) error {
	if w.fetcher == nil || w.photos == nil || w.reports == nil {
		return fmt.Errorf("media mirror dependencies not configured")
	}

	payload, err := ParseMediaMirrorPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	reportID, err := uuid.Parse(payload.ReportID)
	if err != nil {
		return fmt.Errorf("%w: invalid report id %q", asynq.SkipRetry, payload.ReportID)
	}

	data, contentType, err := w.fetcher.FetchMedia(ctx, payload.SourceURL)
	if err != nil {
		return fmt.Errorf("fetch media for report %s: %w", reportID, err)
	}

	if err := w.photos.ValidateUpload(contentType, int64(len(data))); err != nil {
		// Unsupported media never becomes supported on retry.
		if apperr.Is(err, apperr.KindValidation) {
			w.log.Warn("mirror skipped unsupported media", "reportId", reportID, "contentType", contentType)
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}

	publicURL, err := w.photos.UploadPhoto(ctx, "whatsapp", "photo", contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("store mirrored media for report %s: %w", reportID, err)
	}

	if err := w.reports.UpdatePhotoURL(ctx, reportID, publicURL); err != nil {
		return fmt.Errorf("update photo url for report %s: %w", reportID, err)
	}

	w.log.Info("mirrored report media", "reportId", reportID, "photoUrl", publicURL)
	return nil
}

func (w *Worker) handleConversationSweep(ctx context.Context, _ *asynq.Task) error {
	if w.sweeper == nil {
		return nil
	}

	removed, err := w.sweeper.SweepStale(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("conversation sweep: %w", err)
	}

	w.log.Info("conversation_sweep", "removed", removed)
	return nil
}

// NewScheduler registers the periodic tasks. Run alongside the worker.
func NewScheduler(cfg config.RedisConfig, log *logger.Logger) (*asynq.Scheduler, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	scheduler := asynq.NewScheduler(opt, nil)
	if _, err := scheduler.Register(sweepInterval, NewConversationSweepTask(), asynq.Queue(queue)); err != nil {
		return nil, fmt.Errorf("register conversation sweep: %w", err)
	}

	return scheduler, nil
}
