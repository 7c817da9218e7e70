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

	"civicpulse_backend/internal/adapters"
	"civicpulse_backend/internal/assist"
	"civicpulse_backend/internal/auth"
	"civicpulse_backend/internal/events"
	apphttp "civicpulse_backend/internal/http"
	"civicpulse_backend/internal/http/router"
	"civicpulse_backend/internal/intake"
	"civicpulse_backend/internal/jobs"
	"civicpulse_backend/internal/media"
	"civicpulse_backend/internal/notification"
	"civicpulse_backend/internal/reports"
	"civicpulse_backend/internal/twilio"
	"civicpulse_backend/platform/ai/openaicompat"
	"civicpulse_backend/platform/config"
	"civicpulse_backend/platform/db"
	"civicpulse_backend/platform/logger"
	"civicpulse_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	redisClient, err := newRedisClient(cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	defer redisClient.Close()
	if err := withRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
		return redisClient.Ping(ctx).Err()
	}); err != nil {
		log.Error("redis unreachable", "error", err)
		panic("redis unreachable: " + err.Error())
	}
	log.Info("redis connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Close()

	// Shared validator instance for dependency injection
	val := validator.New()

	// Twilio client; disabled deployments get a silent no-op sender.
	twilioClient := twilio.NewClient(cfg, log)
	if twilioClient == nil {
		log.Warn("twilio not configured; outbound WhatsApp messages disabled")
	}

	// Photo storage (MinIO)
	var photoStorage *media.Storage
	if cfg.IsMinIOEnabled() {
		photoStorage, err = media.NewStorage(cfg)
		if err != nil {
			log.Error("failed to initialize photo storage", "error", err)
			panic("failed to initialize photo storage: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure photo bucket", 5, 2*time.Second, func() error {
			return photoStorage.EnsureBucketExists(ctx)
		}); err != nil {
			log.Error("failed to ensure photo bucket exists", "error", err)
			panic("failed to ensure photo bucket exists: " + err.Error())
		}
		log.Info("photo storage initialized", "bucket", cfg.GetMinioBucketReportPhotos())
	} else {
		log.Warn("MinIO not configured; photo uploads and media mirroring disabled")
	}

	// Task queue client for background jobs
	var taskClient *jobs.Client
	if photoStorage != nil {
		taskClient, err = jobs.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize task client", "error", err)
			panic("failed to initialize task client: " + err.Error())
		}
		defer taskClient.Close()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	reportsModule := reports.NewModule(pool, cfg, eventBus, val, log)
	authModule := auth.NewModule(pool, cfg, val, log)

	// Reporter email lookup for status notifications
	reportsModule.Service().SetEmailLookup(adapters.NewAuthEmailLookup(authModule.Service()))

	// AI helpers share one OpenAI-compatible chat model
	var chatModel *openaicompat.ChatModel
	if cfg.IsAIEnabled() {
		chatModel = openaicompat.NewModel(openaicompat.Config{
			APIKey:  cfg.GetAIAPIKey(),
			BaseURL: cfg.GetAIBaseURL(),
			Model:   cfg.GetAIModel(),
		})
		reportsModule.Service().SetIconSuggester(adapters.NewAIIconSuggester(chatModel))
	} else {
		log.Warn("AI not configured; icon classification uses keywords only")
	}

	// WhatsApp intake pipeline
	conversationStore := intake.NewRedisStore(redisClient, cfg.GetConversationTTL())
	submitter := adapters.NewIntakeReportSubmitter(reportsModule.Service())
	var mirror intake.MediaMirrorEnqueuer
	if taskClient != nil {
		mirror = taskClient
	}
	intakeModule := intake.NewModule(cfg, conversationStore, submitter, twilioClient, mirror, eventBus, log)

	// Assist endpoints
	var assistModule *assist.Module
	if chatModel != nil {
		chatAgent, err := assist.NewChatAgent(chatModel, reportsModule.Repository(), log)
		if err != nil {
			log.Error("failed to initialize chat agent", "error", err)
			panic("failed to initialize chat agent: " + err.Error())
		}
		assistService := assist.NewService(chatModel, reportsModule.Service(), reportsModule.Repository(), log)
		assistModule = assist.NewModule(cfg, chatAgent, assistService, val, log)
	}

	// Status change notifications (not HTTP-facing)
	var emailSender notification.EmailSender
	if cfg.GetEmailEnabled() {
		emailSender = notification.NewSMTPSender(cfg)
	} else {
		log.Warn("email not configured; status emails disabled")
	}
	var whatsappSender notification.WhatsAppSender
	if twilioClient != nil {
		whatsappSender = twilioClient
	}
	notification.NewModule(eventBus, emailSender, whatsappSender, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	modules := []apphttp.Module{
		authModule,
		reportsModule,
		intakeModule,
	}
	if photoStorage != nil {
		modules = append(modules, media.NewModule(photoStorage, log))
	}
	if assistModule != nil {
		modules = append(modules, assistModule)
	}

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules:  modules,
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
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
