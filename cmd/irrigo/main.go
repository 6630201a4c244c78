package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/irrigo/irrigo/internal/app"
	"github.com/irrigo/irrigo/internal/auth"
	"github.com/irrigo/irrigo/internal/banners"
	"github.com/irrigo/irrigo/internal/catalog"
	"github.com/irrigo/irrigo/internal/content/company"
	"github.com/irrigo/irrigo/internal/content/news"
	"github.com/irrigo/irrigo/internal/content/videos"
	"github.com/irrigo/irrigo/internal/customers"
	"github.com/irrigo/irrigo/internal/dashboard"
	"github.com/irrigo/irrigo/internal/observability"
	"github.com/irrigo/irrigo/internal/platform/cache"
	"github.com/irrigo/irrigo/internal/platform/db"
	"github.com/irrigo/irrigo/internal/projects"
	"github.com/irrigo/irrigo/internal/quotes"
	"github.com/irrigo/irrigo/internal/shared"
	"github.com/irrigo/irrigo/internal/visitors"
	"github.com/irrigo/irrigo/jobs"
	"github.com/irrigo/irrigo/report"
)

// bannerRefreshTicks reloads the live banner set every this many rotations.
const bannerRefreshTicks = 10

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	pdfClient := report.NewClient(cfg.GotenbergURL)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	services, err := app.BuildServices(app.Deps{
		Config:   cfg,
		Logger:   logger,
		Pool:     pool,
		Redis:    redisClient,
		Metrics:  metrics,
		PDF:      pdfClient,
		Mailer:   jobClient,
		Recorder: jobClient,
	})
	if err != nil {
		logger.Error("build services", slog.Any("error", err))
		os.Exit(1)
	}

	rotator := banners.NewRotator(services.Banners.Live, cfg.BannerRotateInterval, bannerRefreshTicks, logger)
	services.Banners.AttachRotator(rotator)
	go func() {
		if err := rotator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("banner rotator", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "irrigo_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		Metrics:          metrics,
		AuthHandler:      auth.NewHandler(logger, services.Auth, sessionManager, csrfManager),
		CatalogHandler:   catalog.NewHandler(logger, services.Catalog),
		ProjectsHandler:  projects.NewHandler(logger, services.Projects),
		VideosHandler:    videos.NewHandler(logger, services.Videos),
		NewsHandler:      news.NewHandler(logger, services.News),
		CompanyHandler:   company.NewHandler(logger, services.Company),
		BannersHandler:   banners.NewHandler(logger, services.Banners),
		CustomersHandler: customers.NewHandler(logger, services.Customers),
		QuotesHandler:    quotes.NewHandler(logger, services.Quotes, metrics),
		VisitorsHandler:  visitors.NewHandler(logger, services.Visitors, cfg.IsProduction()),
		DashboardHandler: dashboard.NewHandler(logger, services.Dashboard),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Readiness: map[string]app.ReadinessCheck{
			"postgres":  pool.Ping,
			"redis":     func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			"gotenberg": pdfClient.Ping,
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
