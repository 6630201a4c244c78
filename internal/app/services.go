package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

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
	"github.com/irrigo/irrigo/internal/projects"
	"github.com/irrigo/irrigo/internal/quotes"
	"github.com/irrigo/irrigo/internal/view"
	"github.com/irrigo/irrigo/internal/visitors"
)

// Deps are the connections and adapters services are built from. Mailer,
// Recorder and PDF may be nil.
type Deps struct {
	Config   *Config
	Logger   *slog.Logger
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Metrics  *observability.Metrics
	PDF      quotes.PDFRenderer
	Mailer   quotes.MailEnqueuer
	Recorder visitors.Recorder
}

// Services holds one service per domain package.
type Services struct {
	Auth      *auth.Service
	Catalog   *catalog.Service
	Projects  *projects.Service
	Videos    *videos.Service
	News      *news.Service
	Company   *company.Service
	Banners   *banners.Service
	Customers *customers.Service
	Quotes    *quotes.Service
	Visitors  *visitors.Service
	Dashboard *dashboard.Service
}

// BuildServices wires repositories and services over the shared pool.
func BuildServices(d Deps) (*Services, error) {
	engine, err := view.NewEngine()
	if err != nil {
		return nil, err
	}
	cfg := d.Config

	s := &Services{
		Auth:      auth.NewService(auth.NewRepository(d.Pool)),
		Catalog:   catalog.NewService(catalog.NewRepository(d.Pool), cache.NewVersioned(d.Redis, "catalog", cfg.CatalogCacheTTL), d.Logger),
		Projects:  projects.NewService(projects.NewRepository(d.Pool), cache.NewVersioned(d.Redis, "projects", cfg.CatalogCacheTTL), d.Logger),
		Videos:    videos.NewService(videos.NewRepository(d.Pool), d.Metrics),
		News:      news.NewService(news.NewRepository(d.Pool), d.Metrics),
		Company:   company.NewService(company.NewRepository(d.Pool)),
		Banners:   banners.NewService(banners.NewRepository(d.Pool), d.Logger),
		Customers: customers.NewService(customers.NewRepository(d.Pool)),
		Visitors:  visitors.NewService(visitors.NewRepository(d.Pool), d.Recorder, cfg.VisitorSalt, d.Logger),
	}
	s.Quotes = quotes.NewService(quotes.NewRepository(d.Pool), s.Customers, quotes.Options{
		DefaultVATRate: decimal.NewFromFloat(cfg.DefaultVATRate),
		Company: quotes.Company{
			Name:    cfg.CompanyName,
			Address: cfg.CompanyAddress,
			Phone:   cfg.CompanyPhone,
			Email:   cfg.CompanyEmail,
		},
		Documents: quotes.NewDocumentRenderer(engine),
		PDF:       d.PDF,
		Mailer:    d.Mailer,
		Logger:    d.Logger,
	})
	s.Dashboard = dashboard.NewService(dashboard.Sources{
		Products:  s.Catalog,
		Projects:  s.Projects,
		Customers: s.Customers,
		Quotes:    s.Quotes,
		Visits:    s.Visitors,
		Videos:    s.Videos,
	})
	return s, nil
}
