package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civicpulse_backend/internal/intake"
	"civicpulse_backend/internal/jobs"
	"civicpulse_backend/internal/media"
	"civicpulse_backend/internal/reports"
	"civicpulse_backend/internal/twilio"
	"civicpulse_backend/platform/config"
	"civicpulse_backend/platform/db"
	"civicpulse_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	redisClient, err := newRedisClient(cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	defer redisClient.Close()

	// Media mirror dependencies; nil when the provider is not configured.
	var fetcher jobs.MediaFetcher
	if twilioClient := twilio.NewClient(cfg, log); twilioClient != nil {
		fetcher = twilioClient
	} else {
		log.Warn("twilio not configured; media mirror tasks will fail until it is")
	}

	var photos jobs.PhotoStore
	if cfg.IsMinIOEnabled() {
		storage, err := media.NewStorage(cfg)
		if err != nil {
			log.Error("failed to initialize photo storage", "error", err)
			panic("failed to initialize photo storage: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure photo bucket", 5, 2*time.Second, func() error {
			return storage.EnsureBucketExists(ctx)
		}); err != nil {
			log.Error("failed to ensure photo bucket exists", "error", err)
			panic("failed to ensure photo bucket exists: " + err.Error())
		}
		photos = storage
	} else {
		log.Warn("MinIO not configured; media mirror tasks will fail until it is")
	}

	reportsRepo := reports.NewRepository(pool)
	sweeper := intake.NewRedisStore(redisClient, cfg.GetConversationTTL())

	worker, err := jobs.NewWorker(cfg, fetcher, photos, reportsRepo, sweeper, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	scheduler, err := jobs.NewScheduler(cfg, log)
	if err != nil {
		log.Error("failed to initialize scheduler", "error", err)
		panic("failed to initialize scheduler: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		if err := scheduler.Start(); err != nil {
			return err
		}
		<-gctx.Done()
		scheduler.Shutdown()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("worker stopped", "error", err)
		panic("worker stopped: " + err.Error())
	}
	log.Info("worker shut down")
}

func newRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}
	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
		} else {
			opt.TLSConfig.InsecureSkipVerify = true
		}
	}
	return redis.NewClient(opt), nil
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
