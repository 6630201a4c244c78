package catalog

import (
	"cmp"
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/irrigo/irrigo/internal/listing"
	"github.com/irrigo/irrigo/internal/platform/cache"
	"github.com/irrigo/irrigo/internal/platform/httpx"
	"github.com/irrigo/irrigo/internal/shared"
)

// Service serves the public catalog from a versioned cache and applies admin
// writes, invalidating the cache after each one.
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

func (s *Service) active(ctx context.Context) ([]Product, error) {
	var products []Product
	err := s.cache.FetchJSON(ctx, &products, func(ctx context.Context) (any, error) {
		return s.repo.ListActive(ctx)
	}, "products", "active")
	return products, err
}

// List filters, sorts and pages the active products.
func (s *Service) List(ctx context.Context, q Query) (listing.Page[Product], error) {
	products, err := s.active(ctx)
	if err != nil {
		return listing.Page[Product]{}, err
	}
	return Apply(products, q), nil
}

// Apply runs q against an already loaded product set.
func Apply(products []Product, q Query) listing.Page[Product] {
	filtered := listing.Filter(products,
		func(p Product) bool { return listing.ContainsFold(q.Search, p.Name, p.Summary) },
		func(p Product) bool { return q.Category == "" || p.Category == q.Category },
		func(p Product) bool { return !q.InStockOnly || p.InStock() },
		func(p Product) bool { return q.Featured == nil || p.Featured == *q.Featured },
	)
	return listing.Paginate(listing.SortBy(filtered, comparator(q.Sort)), q.Page, q.PerPage)
}

func comparator(key string) func(a, b Product) int {
	switch key {
	case SortPriceAsc:
		return func(a, b Product) int { return comparePrice(a.FromPrice(), b.FromPrice(), false) }
	case SortPriceDesc:
		return func(a, b Product) int { return comparePrice(a.FromPrice(), b.FromPrice(), true) }
	case SortNewest:
		return func(a, b Product) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case SortName:
		return func(a, b Product) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) }
	default:
		return nil
	}
}

// comparePrice orders unpriced products last in either direction.
func comparePrice(a, b *decimal.Decimal, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case desc:
		return b.Cmp(*a)
	default:
		return a.Cmp(*b)
	}
}

// GetBySlug returns an active product.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	products, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].Slug == slug {
			return &products[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// Warm loads the active set into the cache.
func (s *Service) Warm(ctx context.Context) (int, error) {
	products, err := s.active(ctx)
	return len(products), err
}

// AdminList pages every product, inactive ones included.
func (s *Service) AdminList(ctx context.Context, q Query) (listing.Page[Product], error) {
	products, err := s.repo.ListAll(ctx)
	if err != nil {
		return listing.Page[Product]{}, err
	}
	return Apply(products, q), nil
}

// Get returns a product by id.
func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a product.
func (s *Service) Create(ctx context.Context, input Input) (*Product, error) {
	input = normalize(input)
	if err := httpx.Validate(input); err != nil {
		return nil, err
	}
	product, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return product, nil
}

// Update validates and overwrites a product.
func (s *Service) Update(ctx context.Context, id int64, input Input) (*Product, error) {
	input = normalize(input)
	if err := httpx.Validate(input); err != nil {
		return nil, err
	}
	product, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return product, nil
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Count returns the number of active products.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump catalog cache", slog.Any("error", err))
	}
}

func normalize(in Input) Input {
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.Name = strings.TrimSpace(in.Name)
	in.Category = Category(strings.ToLower(strings.TrimSpace(string(in.Category))))
	in.Summary = strings.TrimSpace(in.Summary)
	for i := range in.Variants {
		in.Variants[i].Name = strings.TrimSpace(in.Variants[i].Name)
	}
	return in
}
