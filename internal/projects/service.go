package projects

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/irrigo/irrigo/internal/listing"
	"github.com/irrigo/irrigo/internal/platform/cache"
	"github.com/irrigo/irrigo/internal/platform/httpx"
	"github.com/irrigo/irrigo/internal/shared"
)

// Service serves the portfolio from a versioned cache.
type Service struct {
	repo   Repository
	cache  *cache.Versioned
	logger *slog.Logger
}

// NewService constructs a Service. A nil cache reads straight from the repository.
func NewService(repo Repository, c *cache.Versioned, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: c, logger: logger}
}

func (s *Service) all(ctx context.Context) ([]Project, error) {
	var items []Project
	err := s.cache.FetchJSON(ctx, &items, func(ctx context.Context) (any, error) {
		return s.repo.List(ctx)
	}, "projects", "all")
	return items, err
}

// List filters, sorts and pages projects.
func (s *Service) List(ctx context.Context, q Query) (listing.Page[Project], error) {
	items, err := s.all(ctx)
	if err != nil {
		return listing.Page[Project]{}, err
	}
	return Apply(items, q), nil
}

// Apply runs q against an already loaded project set.
func Apply(items []Project, q Query) listing.Page[Project] {
	filtered := listing.Filter(items,
		func(p Project) bool { return listing.ContainsFold(q.Search, p.Title, p.ClientName, p.Crop, p.Summary) },
		func(p Project) bool { return q.Status == "" || p.Status == q.Status },
		func(p Project) bool { return q.Region == "" || strings.EqualFold(p.Region, q.Region) },
	)
	var order func(a, b Project) int
	switch q.Sort {
	case SortNewest:
		order = func(a, b Project) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case SortWaterSaved:
		order = func(a, b Project) int { return b.WaterSavedPct.Cmp(a.WaterSavedPct) }
	case SortYield:
		order = func(a, b Project) int { return b.YieldImprovementPct.Cmp(a.YieldImprovementPct) }
	}
	return listing.Paginate(listing.SortBy(filtered, order), q.Page, q.PerPage)
}

// GetBySlug returns one project.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Project, error) {
	items, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Slug == slug {
			return &items[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// Impact summarises completed projects.
func (s *Service) Impact(ctx context.Context) (Impact, error) {
	items, err := s.all(ctx)
	if err != nil {
		return Impact{}, err
	}
	return Summarize(items), nil
}

// Summarize averages the impact metrics of completed projects, rounded to one decimal.
func Summarize(items []Project) Impact {
	impact := Impact{TotalHectares: decimal.Zero, AvgWaterSavedPct: decimal.Zero, AvgYieldImprovementPct: decimal.Zero}
	water, yield := decimal.Zero, decimal.Zero
	for _, p := range items {
		if p.Status != StatusCompleted {
			continue
		}
		impact.Completed++
		impact.TotalHectares = impact.TotalHectares.Add(p.AreaHectares)
		water = water.Add(p.WaterSavedPct)
		yield = yield.Add(p.YieldImprovementPct)
	}
	if impact.Completed > 0 {
		n := decimal.NewFromInt(int64(impact.Completed))
		impact.AvgWaterSavedPct = water.Div(n).Round(1)
		impact.AvgYieldImprovementPct = yield.Div(n).Round(1)
	}
	return impact
}

// Warm loads the portfolio into the cache.
func (s *Service) Warm(ctx context.Context) (int, error) {
	items, err := s.all(ctx)
	return len(items), err
}

// Get returns a project by id.
func (s *Service) Get(ctx context.Context, id int64) (*Project, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a project.
func (s *Service) Create(ctx context.Context, input Input) (*Project, error) {
	input = normalize(input)
	if err := httpx.Validate(input); err != nil {
		return nil, err
	}
	project, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return project, nil
}

// Update validates and overwrites a project.
func (s *Service) Update(ctx context.Context, id int64, input Input) (*Project, error) {
	input = normalize(input)
	if err := httpx.Validate(input); err != nil {
		return nil, err
	}
	project, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return project, nil
}

// Delete removes a project.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Count returns the number of projects.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump projects cache", slog.Any("error", err))
	}
}

func normalize(in Input) Input {
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.Title = strings.TrimSpace(in.Title)
	in.Region = strings.TrimSpace(in.Region)
	in.Status = Status(strings.ToLower(strings.TrimSpace(string(in.Status))))
	return in
}
