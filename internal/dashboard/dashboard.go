// Package dashboard aggregates the admin landing-page figures.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/irrigo/irrigo/internal/content/videos"
	"github.com/irrigo/irrigo/internal/platform/httpx"
	"github.com/irrigo/irrigo/internal/quotes"
	"github.com/irrigo/irrigo/internal/visitors"
)

const (
	requestTimeout = 3 * time.Second
	visitWindow    = 7
	topVideoCount  = 5
)

// Counter reports how many records a section holds.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// QuoteStats is satisfied by the quotes service.
type QuoteStats interface {
	Stats(ctx context.Context) (quotes.Stats, error)
}

// VisitStats is satisfied by the visitors service.
type VisitStats interface {
	Stats(ctx context.Context, days int) (visitors.Stats, error)
}

// TopVideos is satisfied by the videos service.
type TopVideos interface {
	Top(ctx context.Context, limit int) ([]videos.Video, error)
}

// Sources groups the services a Summary is built from.
type Sources struct {
	Products  Counter
	Projects  Counter
	Customers Counter
	Quotes    QuoteStats
	Visits    VisitStats
	Videos    TopVideos
}

// Summary is the dashboard payload.
type Summary struct {
	Products       int                   `json:"products"`
	Projects       int                   `json:"projects"`
	Customers      int                   `json:"customers"`
	QuotesByStatus map[quotes.Status]int `json:"quotes_by_status"`
	AcceptedValue  decimal.Decimal       `json:"accepted_value"`
	Visits         visitors.Stats        `json:"visits"`
	TopVideos      []videos.Video        `json:"top_videos"`
}

// Service builds dashboard summaries.
type Service struct {
	src Sources
}

// NewService constructs a Service.
func NewService(src Sources) *Service {
	return &Service{src: src}
}

// Summary loads every section concurrently; the first failure cancels the rest.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var out Summary
	g, ctx := errgroup.WithContext(ctx)

	count := func(c Counter, dest *int) {
		g.Go(func() error {
			n, err := c.Count(ctx)
			if err != nil {
				return err
			}
			*dest = n
			return nil
		})
	}
	count(s.src.Products, &out.Products)
	count(s.src.Projects, &out.Projects)
	count(s.src.Customers, &out.Customers)

	g.Go(func() error {
		stats, err := s.src.Quotes.Stats(ctx)
		if err != nil {
			return err
		}
		out.QuotesByStatus = stats.ByStatus
		out.AcceptedValue = stats.AcceptedValue
		return nil
	})
	g.Go(func() error {
		stats, err := s.src.Visits.Stats(ctx, visitWindow)
		if err != nil {
			return err
		}
		out.Visits = stats
		return nil
	})
	g.Go(func() error {
		top, err := s.src.Videos.Top(ctx, topVideoCount)
		if err != nil {
			return err
		}
		out.TopVideos = top
		return nil
	})

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return out, nil
}

// Handler serves GET /dashboard.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountAdmin registers the dashboard route.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/dashboard", h.summary)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	summary, err := h.service.Summary(ctx)
	if err != nil {
		h.logger.Error("dashboard summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
