// wah-sales lead-qualification server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/ashureev/wah-sales/internal/api"
	"github.com/ashureev/wah-sales/internal/config"
	"github.com/ashureev/wah-sales/internal/conversation"
	"github.com/ashureev/wah-sales/internal/extraction"
	"github.com/ashureev/wah-sales/internal/middleware"
	"github.com/ashureev/wah-sales/internal/store"
	"github.com/ashureev/wah-sales/internal/transcript"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting server",
		"port", cfg.Port,
		"dev", cfg.IsDevelopment(),
		"store", cfg.Store.Driver,
		"extractor", cfg.Extraction.Backend)

	// Initialize dependencies.
	repo, err := openStore(cfg.Store)
	if err != nil {
		slog.Error("Failed to initialize session store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Session store health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Session store connected")

	healthChecks := map[string]api.Pinger{"store": repo}

	extractor, closeExtractor, err := openExtractor(cfg.Extraction, logger)
	if err != nil {
		slog.Error("Failed to initialize extractor", "error", err)
		os.Exit(1)
	}
	defer closeExtractor()
	if p, ok := extractor.(api.Pinger); ok {
		healthChecks["extractor"] = p
	}

	transcripts, err := transcript.NewLogger(transcript.Config{
		Enabled:       cfg.Transcript.Enabled,
		Dir:           cfg.Transcript.Dir,
		GlobalEnabled: cfg.Transcript.GlobalEnabled,
		GlobalPath:    cfg.Transcript.GlobalPath,
		QueueSize:     cfg.Transcript.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize transcript logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := transcripts.Close(); closeErr != nil {
			slog.Error("Failed to close transcript logger", "error", closeErr)
		}
	}()

	engine := conversation.New(repo,
		extraction.WithTimeout(extractor, cfg.Extraction.Timeout),
		conversation.WithLeadSink(repo),
		conversation.WithTranscript(transcripts),
		conversation.WithLogger(logger),
	)

	limiter := api.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	defer limiter.Close()

	// Initialize handlers.
	healthHandler := api.NewHealthHandler(healthChecks, cfg.HealthCheckTimeout)
	leadHandler := api.NewLeadHandler(engine, limiter, cfg.MaxRequestBodyBytes, logger)
	wsHandler := api.NewWebSocketHandler(engine, limiter, cfg.AllowedOrigins, cfg.MaxRequestBodyBytes, logger)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	healthHandler.RegisterHealth(r)
	leadHandler.RegisterRoutes(r)
	r.Get("/ws/lead", wsHandler.ServeHTTP)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // WebSocket connections are long lived
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store.StartJanitor(ctx, engine, cfg.Store.SessionTTL, cfg.Store.JanitorInterval)
	slog.Info("Session janitor started", "session_ttl", cfg.Store.SessionTTL, "interval", cfg.Store.JanitorInterval)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return
	}

	slog.Info("Server stopped successfully")
}

func openStore(cfg config.StoreConfig) (store.Repository, error) {
	opts := []store.Option{store.WithDBPath(cfg.DBPath), store.WithRedisTTL(cfg.SessionTTL)}
	if cfg.Driver == store.DriverRedis {
		opts = append(opts, store.WithRedisClient(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})))
	}
	return store.New(cfg.Driver, opts...)
}

func openExtractor(cfg config.ExtractionConfig, logger *slog.Logger) (extraction.Extractor, func(), error) {
	switch cfg.Backend {
	case "rules":
		return extraction.NewRuleExtractor(), func() {}, nil

	case "openai":
		oc := extraction.DefaultOpenAIConfig()
		oc.APIKey = cfg.OpenAIAPIKey
		oc.BaseURL = cfg.OpenAIBaseURL
		if cfg.OpenAIModel != "" {
			oc.Model = cfg.OpenAIModel
		}
		ex, err := extraction.NewOpenAIExtractor(oc, logger)
		if err != nil {
			return nil, nil, err
		}
		return ex, func() {}, nil

	case "grpc":
		slog.Info("Connecting to extraction service via gRPC", "address", cfg.GrpcAddr)
		ex, err := extraction.NewGrpcExtractor(cfg.GrpcAddr, logger)
		if err != nil {
			return nil, nil, err
		}
		return ex, ex.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown extractor backend %q", cfg.Backend)
}
