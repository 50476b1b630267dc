package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quickshareqr/server-go/internal/config"
	"github.com/quickshareqr/server-go/internal/database"
	"github.com/quickshareqr/server-go/internal/handler"
	"github.com/quickshareqr/server-go/internal/httputil"
	"github.com/quickshareqr/server-go/internal/jobs"
	"github.com/quickshareqr/server-go/internal/middleware"
	"github.com/quickshareqr/server-go/internal/redis"
	"github.com/quickshareqr/server-go/internal/repository"
	"github.com/quickshareqr/server-go/internal/service"
	"github.com/quickshareqr/server-go/internal/sse"
	"github.com/quickshareqr/server-go/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	if err := db.EnsureSchema(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure database schema")
	}
	log.Info().Msg("database connected")

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")
	} else {
		log.Info().Msg("redis not configured, real-time events stay in-process")
	}

	store, err := storage.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := store.EnsureBucket(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure object store bucket")
	}
	log.Info().Str("bucket", cfg.S3Bucket).Msg("object store ready")

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("failed to create upload dir")
	}

	sessionRepo := repository.NewSessionRepository(db.DB)
	sessionService := service.NewSessionService(sessionRepo, cfg.SessionTTL())

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	uploadHandler := handler.NewUploadHandler(store, cfg.UploadDir, cfg.MaxFileBytes())
	sessionHandler := handler.NewSessionHandler(sessionService, store, broker, cfg.UploadDir, cfg.MaxFileBytes())
	eventsHandler := handler.NewEventsHandler(broker, sessionService)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	bodyLimit := middleware.NewBodyLimitMiddleware(cfg.MaxRequestBytes())

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(corsHandler.Handler)
	r.Use(bodyLimit.Handler)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "QuickShareQR API is running")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", uploadHandler.Direct)
		r.Post("/upload-folder", uploadHandler.Folder)
		r.Post("/create-session", sessionHandler.Create)

		r.Route("/session/{sessionID}", func(r chi.Router) {
			r.Get("/", sessionHandler.Get)
			r.Post("/upload", sessionHandler.Upload)
			r.Get("/events", eventsHandler.ServeHTTP)
		})
	})

	sweepJob := jobs.NewSweepJob(sessionService, config.SessionSweepInterval)
	sweepJob.Start()
	defer sweepJob.Stop()

	tempCleanupJob := jobs.NewTempCleanupJob(cfg.UploadDir, config.TempFileMaxAge, config.TempCleanupInterval)
	tempCleanupJob.Start()
	defer tempCleanupJob.Stop()

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
		// Uploads are deliberately unbounded in time, so only header reads are
		// capped. Size is bounded by the body-limit middleware.
		ReadHeaderTimeout: config.ServerReadHeaderTimeout,
		IdleTimeout:       config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
