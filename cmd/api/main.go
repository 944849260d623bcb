package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/archipelago-team/meeting-scribe/pkg/validator"

	"github.com/archipelago-team/meeting-scribe/internal/adapter/handler"
	"github.com/archipelago-team/meeting-scribe/internal/adapter/repository"
	"github.com/archipelago-team/meeting-scribe/internal/core/audio"
	"github.com/archipelago-team/meeting-scribe/internal/core/scheduler"
	"github.com/archipelago-team/meeting-scribe/internal/core/session"
	"github.com/archipelago-team/meeting-scribe/internal/infrastructure/cache"
	"github.com/archipelago-team/meeting-scribe/internal/infrastructure/database"
	"github.com/archipelago-team/meeting-scribe/internal/infrastructure/external/recall"
	"github.com/archipelago-team/meeting-scribe/internal/infrastructure/storage"
	"github.com/archipelago-team/meeting-scribe/internal/infrastructure/store"
	"github.com/archipelago-team/meeting-scribe/internal/stream"
	pkgai "github.com/archipelago-team/meeting-scribe/pkg/ai"
	"github.com/archipelago-team/meeting-scribe/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if cfg.Server.Environment == "development" {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	log.Println("🔧 Initializing dependencies...")

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Summarization audit log, optional
	var audit session.AuditLogger
	var auditLister handler.AuditLister
	if cfg.Database.Enabled {
		log.Println("📦 Connecting to database...")
		db, err := database.NewPostgresDB(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.CloseDB(db)
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to migrate audit schema: %v", err)
		}
		auditRepo := repository.NewAuditRepository(db, logger)
		audit = auditRepo
		auditLister = auditRepo
	}

	// Styled-summary cache, optional
	var summaryCache *cache.SummaryCache
	if cfg.Redis.Enabled {
		log.Println("📦 Connecting to Redis...")
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		summaryCache = cache.NewSummaryCache(redisClient, 10*time.Minute)
	}

	// Audio-slice archive, optional
	var archiver audio.Archiver
	var segmentLister handler.SegmentLister
	if cfg.Storage.Enabled {
		log.Println("📦 Connecting to object storage...")
		minioClient, err := storage.NewMinIOClient(&cfg.Storage, logger)
		if err != nil {
			log.Fatalf("Failed to connect to object storage: %v", err)
		}
		archiver = minioClient
		segmentLister = minioClient
	}

	// External collaborators
	log.Println("🤖 Initializing AI components...")
	provider := recall.NewClient(&cfg.Provider, logger)
	summaryStore := store.NewClient(&cfg.Store, logger)
	llm := pkgai.NewCompletionClient(&cfg.LLM, logger)

	var transcriber audio.Transcriber
	if cfg.Speech.Provider == "assemblyai" {
		transcriber = pkgai.NewAssemblyAITranscriber(cfg.Speech.AssemblyAPIKey, logger)
	} else {
		transcriber = pkgai.NewSpeechClient(&cfg.Speech, "audio/wav", logger)
	}

	// Session engine
	log.Println("⚙️  Initializing session engine...")
	sched := scheduler.New(logger)
	registry := session.NewRegistry(session.Config{
		BotName: cfg.Bot.Name,
		Webhooks: session.Webhooks{
			TranscriptURL: cfg.TranscriptWebhookURL(),
			AudioWSURL:    cfg.AudioWebhookURL(),
			SpeakerWSURL:  cfg.SpeakerWebhookURL(),
		},
		SampleRate:         cfg.Bot.SampleRate,
		LagWindowBytes:     cfg.Bot.LagWindowBytes,
		ExtractionInterval: cfg.Bot.ExtractionInterval,
		ExtractionPressure: cfg.Bot.ExtractionPressure,
		SummaryInterval:    cfg.Bot.SummaryInterval,
		LivenessInterval:   cfg.Bot.LivenessInterval,
		MinPromptLen:       cfg.Bot.MinPromptLen,
		NoiseToken:         cfg.Bot.NoiseToken,
	}, session.Deps{
		Provider:    provider,
		Store:       summaryStore,
		Summarizer:  llm,
		Transcriber: transcriber,
		Archiver:    archiver,
		Audit:       audit,
		StyleCache:  summaryCache,
		Scheduler:   sched,
		Logger:      logger,
	})

	go sched.Run(rootCtx)

	// Sweep stale records left over from an earlier run
	registry.Reconcile(rootCtx)

	// Media stream listeners
	log.Println("🎙️  Starting media stream listeners...")
	router := stream.NewRouter(registry, logger)
	go func() {
		if err := router.ListenAudio(rootCtx, cfg.Bot.AudioWSPort); err != nil {
			log.Fatalf("Audio stream listener failed: %v", err)
		}
	}()
	go func() {
		if err := router.ListenSpeakers(rootCtx, cfg.Bot.SpeakerWSPort); err != nil {
			log.Fatalf("Speaker stream listener failed: %v", err)
		}
	}()

	// HTTP handlers
	log.Println("🛣️  Setting up routes...")
	recordingHandler := handler.NewRecording(registry, logger)
	summaryHandler := handler.NewSummary(registry, summaryStore, llm, summaryCache, logger)
	webhookHandler := handler.NewWebhook(registry, cfg.Server.WebhookSecret, logger)

	var inspectHandler *handler.Inspect
	if auditLister != nil || segmentLister != nil {
		inspectHandler = handler.NewInspect(auditLister, segmentLister, logger)
	}

	apiRouter := handler.NewRouter(cfg, recordingHandler, summaryHandler, webhookHandler, inspectHandler)
	apiRouter.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	registry.Shutdown(ctx)
	rootCancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
