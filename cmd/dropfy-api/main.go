// Package main is the entry point for the dropfy-api server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/dropfy/dropfy-api/internal/browser"
	"github.com/dropfy/dropfy-api/internal/config"
	"github.com/dropfy/dropfy-api/internal/database"
	"github.com/dropfy/dropfy-api/internal/http/handlers"
	"github.com/dropfy/dropfy-api/internal/http/mw"
	"github.com/dropfy/dropfy-api/internal/http/routes"
	"github.com/dropfy/dropfy-api/internal/logging"
	"github.com/dropfy/dropfy-api/internal/repository"
	"github.com/dropfy/dropfy-api/internal/service"
	"github.com/dropfy/dropfy-api/internal/shutdown"
	"github.com/dropfy/dropfy-api/internal/version"
	"github.com/dropfy/dropfy-api/internal/worker"
)

func main() {
	// Initialize logger with TTY detection and format control
	logger := logging.SetDefault()

	v := version.Get()
	logger.Info("starting dropfy-api",
		"version", v.Version,
		"commit", v.Commit,
		"built", v.Date,
		"go_version", v.GoVersion,
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	// Run migrations (with logging for each migration applied)
	if err := database.MigrateWithLogger(db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	schemaVersion, err := database.GetLatestSchemaVersion(db)
	if err != nil {
		logger.Warn("failed to get schema version", "error", err)
	} else if schemaVersion != "" {
		migrationCount, _ := database.GetMigrationCount(db)
		logger.Info("database schema ready", "schema_version", schemaVersion, "migrations_applied", migrationCount)
	}

	repos := repository.NewRepositories(db)

	// Fail jobs orphaned by a previous server run before the worker
	// starts claiming, so they don't sit in running forever.
	staleCount, err := repos.Jobs.MarkStaleRunningJobsFailed(context.Background(), 1*time.Hour)
	if err != nil {
		logger.Warn("failed to clean up stale jobs", "error", err)
	} else if staleCount > 0 {
		logger.Info("cleaned up stale running jobs", "count", staleCount)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Browser pool backs vision extraction and the screenshot endpoint.
	// When disabled those features report unavailable; everything else
	// works without Chrome on the host.
	var capturer service.Screenshotter
	var pool *browser.Pool
	if cfg.ScreenshotEnabled {
		pool = browser.NewPool(browser.Options{
			PoolSize:    cfg.BrowserPoolSize,
			MaxAge:      cfg.BrowserMaxAge,
			MaxRequests: cfg.BrowserMaxRequests,
			IdleTimeout: cfg.BrowserIdleTimeout,
		}, logger)
		if cfg.BrowserWarmup > 0 {
			if err := pool.Warmup(ctx, cfg.BrowserWarmup); err != nil {
				logger.Warn("browser warmup failed", "error", err)
			}
		}
		go pool.StartCleanup(ctx)
		capturer = browser.NewCapturer(pool, logger)
		logger.Info("browser pool enabled", "size", cfg.BrowserPoolSize, "warmup", cfg.BrowserWarmup)
	} else {
		logger.Info("screenshots disabled, vision extraction unavailable")
	}

	services, err := service.NewServices(cfg, repos, capturer, logger)
	if err != nil {
		logger.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}

	// Background worker drains the import job queue
	jobWorker := worker.New(repos.Jobs, services.Extraction, worker.Config{
		PollInterval: cfg.WorkerPollInterval,
		Concurrency:  cfg.WorkerConcurrency,
		JobTimeout:   cfg.WorkerJobTimeout,
	}, logger)
	jobWorker.Start(ctx)

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(mw.APIVersion())

	// Request timeout middleware with different timeouts per endpoint type
	router.Use(mw.Timeout(mw.TimeoutConfig{
		Default:  30 * time.Second,
		Extended: cfg.ExtractTimeout + 30*time.Second,
		// Extraction and review generation wait on LLM inference
		ExtendedPatterns: []string{"/extract", "/generate", "/translate", "/improve-description", "/enhance", "/screenshot"},
		// Stripe verifies delivery timing itself
		SkipPatterns: []string{"/webhooks/"},
	}))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID", "X-API-Version"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Request size limit (1MB) - prevent large payload attacks
	router.Use(middleware.RequestSize(1 * 1024 * 1024))

	// Global rate limit by IP plus a concurrency throttle
	router.Use(httprate.LimitByIP(100, time.Minute))
	router.Use(middleware.Throttle(100))

	// Idle shutdown for scale-to-zero deployments. The widget endpoint
	// counts as activity; health probes do not.
	var idle *shutdown.IdleMonitor
	if cfg.IdleTimeout > 0 {
		idle = shutdown.NewIdleMonitor(shutdown.IdleMonitorConfig{
			Timeout:             cfg.IdleTimeout,
			Logger:              logger,
			ExcludePaths:        []string{"/healthz", "/readyz", "/api/v1/health"},
			BackgroundWorkCheck: jobWorker.Busy,
		})
		router.Use(idle.Middleware)
		idle.Start()
		logger.Info("idle shutdown enabled", "timeout", cfg.IdleTimeout.String())
	}

	// Huma API with OpenAPI docs; bearer-protected operations are
	// enforced by the auth middleware based on their security metadata.
	api := humachi.New(router, routes.NewHumaConfig(cfg.BaseURL))
	api.UseMiddleware(mw.HumaAuth(api, cfg.JWTSecret))

	h := handlers.New(cfg, services, db, logger)
	routes.Register(api, h)

	// Raw routes outside huma: the Stripe webhook needs the untouched
	// request body for signature verification, and the widget serves
	// HTML/JS rather than JSON.
	if cfg.StripeWebhookSecret != "" {
		router.Post("/api/v1/webhooks/stripe", h.Stripe.HandleWebhook)
		logger.Info("stripe webhook endpoint enabled")
	}
	router.Get("/api/v1/widget/reviews-inject.js", h.Widget.InjectScript)
	router.Get("/api/v1/widget/{productID}", h.Widget.Render)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on signal or idle timeout
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

		if idle != nil {
			select {
			case <-sigChan:
			case <-idle.ShutdownChan():
				logger.Info("idle timeout reached, shutting down")
			}
			idle.Stop()
		} else {
			<-sigChan
		}

		logger.Info("shutting down server")

		// Stop the worker first so in-flight imports finish
		cancel()
		jobWorker.Stop()

		if pool != nil {
			pool.Close()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("starting server", "port", cfg.Port, "base_url", cfg.BaseURL, "billing", cfg.BillingEnabled(), "linkfy", cfg.LinkfyEnabled())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
