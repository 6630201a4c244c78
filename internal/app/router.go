package app

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/irrigo/irrigo/internal/auth"
	"github.com/irrigo/irrigo/internal/banners"
	"github.com/irrigo/irrigo/internal/catalog"
	"github.com/irrigo/irrigo/internal/content/company"
	"github.com/irrigo/irrigo/internal/content/news"
	"github.com/irrigo/irrigo/internal/content/videos"
	"github.com/irrigo/irrigo/internal/customers"
	"github.com/irrigo/irrigo/internal/dashboard"
	"github.com/irrigo/irrigo/internal/observability"
	"github.com/irrigo/irrigo/internal/platform/httpx"
	"github.com/irrigo/irrigo/internal/projects"
	"github.com/irrigo/irrigo/internal/quotes"
	"github.com/irrigo/irrigo/internal/shared"
	"github.com/irrigo/irrigo/internal/visitors"
	"github.com/irrigo/irrigo/jobs"
)

// ReadinessCheck reports whether a dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	AuthHandler      *auth.Handler
	CatalogHandler   *catalog.Handler
	ProjectsHandler  *projects.Handler
	VideosHandler    *videos.Handler
	NewsHandler      *news.Handler
	CompanyHandler   *company.Handler
	BannersHandler   *banners.Handler
	CustomersHandler *customers.Handler
	QuotesHandler    *quotes.Handler
	VisitorsHandler  *visitors.Handler
	DashboardHandler *dashboard.Handler
	JobHandler       *jobs.Handler

	// Readiness maps a dependency name to its probe for /readyz.
	Readiness map[string]ReadinessCheck
}

// NewRouter constructs the chi.Router with the public and admin APIs.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	mwCfg := MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}
	for _, mw := range MiddlewareStack(mwCfg) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readinessHandler(params.Logger, params.Readiness))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", params.CatalogHandler.MountPublic)
		r.Route("/projects", params.ProjectsHandler.MountPublic)
		r.Route("/videos", params.VideosHandler.MountPublic)
		r.Route("/news", params.NewsHandler.MountPublic)
		r.Route("/banners", params.BannersHandler.MountPublic)
		params.CompanyHandler.MountPublic(r)
		params.VisitorsHandler.MountPublic(r)
	})

	r.Route("/admin/api", func(r chi.Router) {
		r.Use(SessionMiddleware(mwCfg))
		r.Use(CSRFMiddleware(mwCfg))
		params.AuthHandler.MountRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			params.DashboardHandler.MountAdmin(r)
			r.Route("/quotes", params.QuotesHandler.MountRoutes)
			r.Route("/customers", params.CustomersHandler.MountRoutes)
			r.Route("/products", params.CatalogHandler.MountAdmin)
			r.Route("/projects", params.ProjectsHandler.MountAdmin)
			r.Route("/videos", params.VideosHandler.MountAdmin)
			r.Route("/news", params.NewsHandler.MountAdmin)
			r.Route("/banners", params.BannersHandler.MountAdmin)
			params.CompanyHandler.MountAdmin(r)
			params.VisitorsHandler.MountAdmin(r)
			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	return r
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func readinessHandler(logger *slog.Logger, checks map[string]ReadinessCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		out := readiness{Status: "ok", Checks: make(map[string]string, len(names))}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				logger.Warn("readiness check failed", slog.String("check", name), slog.Any("error", err))
				out.Status = "degraded"
				out.Checks[name] = err.Error()
				continue
			}
			out.Checks[name] = "ok"
		}
		status := http.StatusOK
		if out.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		httpx.JSON(w, status, out)
	}
}
