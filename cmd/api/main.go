// Package main is the entrypoint for the site API server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sitekit/sitekit/internal/access"
	"github.com/sitekit/sitekit/internal/bootstrap"
	"github.com/sitekit/sitekit/internal/config"
	"github.com/sitekit/sitekit/internal/handler"
	"github.com/sitekit/sitekit/internal/mail"
	"github.com/sitekit/sitekit/internal/metrics"
	"github.com/sitekit/sitekit/internal/middleware"
	"github.com/sitekit/sitekit/internal/server"
	"github.com/sitekit/sitekit/internal/subscriber"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := bootstrap.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	// Storage is optional; without it the endpoints answer "Database not configured".
	backends, err := bootstrap.OpenStorage(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	mailCfg := cfg.Mail.SMTP()
	if !mailCfg.Configured() {
		logger.Warn("SMTP not configured, emails will not be sent")
	}
	if cfg.AdminEmail == "" {
		logger.Warn("ADMIN_EMAIL not set, approval requests cannot be delivered")
	}

	metricsRecorder := metrics.NewInMemory()
	app := newApp(cfg, backends, mail.New(mailCfg), metricsRecorder, logger)

	srv := server.New(app.router, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("storage", func(ctx context.Context) error {
		backends.Close()
		return nil
	})

	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	go app.limiter.Run(limiterCtx)
	srv.OnShutdown("rate limiter", func(ctx context.Context) error {
		stopLimiter()
		return nil
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"website_url", cfg.Site.WebsiteURL,
		"storage", cfg.Storage.Backend,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// app is the wired HTTP surface of the server.
type app struct {
	router  *chi.Mux
	limiter *middleware.IPRateLimiter
}

// newApp builds the services and router. A nil backends.Store leaves the
// site endpoints unconfigured.
func newApp(
	cfg *config.Config,
	backends *bootstrap.Backends,
	sender mail.Sender,
	recorder *metrics.InMemoryRecorder,
	logger *slog.Logger,
) *app {
	var subscribers *subscriber.Service
	if backends.Subscribers != nil {
		subscribers = subscriber.NewService(backends.Subscribers, recorder)
	}

	var gate *access.Gate
	if backends.Store != nil {
		gate = access.NewGate(backends.Store, sender, mail.MustRenderer(), access.Config{
			AdminEmail: cfg.AdminEmail,
			WebsiteURL: cfg.Site.WebsiteURL,
			PrivateURL: cfg.Site.PrivateURL(),
		}, recorder)
	}

	limiter := middleware.NewIPRateLimiter(middleware.RateLimitConfig{
		Logger:  logger,
		Enabled: cfg.RateLimitEnabled,
		RPS:     cfg.RateLimitRPS,
		Burst:   cfg.RateLimitBurst,
	})

	h := handler.New(handler.Deps{
		Subscribers: subscribers,
		Gate:        gate,
		Logger:      logger,
		RateLimit:   limiter.Middleware,
		ExportGuard: middleware.ExportSecret(logger, cfg.ExportSecretHash),
	})

	var database handler.HealthChecker
	if backends.Database != nil {
		database = backends.Database
	}
	var storage handler.HealthChecker
	if backends.Store != nil {
		storage = backends.Store
	}
	healthHandler := handler.NewHealthHandler(storage, database)
	metricsHandler := handler.NewMetricsHandler(recorder)

	return &app{
		router:  setupRouter(h, healthHandler, metricsHandler, cfg, logger),
		limiter: limiter,
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	metricsHandler *handler.MetricsHandler,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Health endpoints
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	// Site endpoints, reachable with and without the /api prefix
	r.Group(h.Routes)
	r.Route("/api", h.Routes)

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
