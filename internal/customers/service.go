package customers

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/irrigo/irrigo/internal/platform/httpx"
	"github.com/irrigo/irrigo/internal/shared"
)

// Service holds customer business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns one page of customers.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Customer, shared.Pagination, error) {
	page, perPage := shared.NormalizePage(filter.Page, filter.PerPage)
	items, total, err := s.repo.List(ctx, filter, perPage, (page-1)*perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if items == nil {
		items = []Customer{}
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// Get returns a single customer.
func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new customer.
func (s *Service) Create(ctx context.Context, input Input) (*Customer, error) {
	input = normalize(input)
	if err := httpx.Validate(input); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, input)
}

// Update validates and overwrites an existing customer.
func (s *Service) Update(ctx context.Context, id int64, input Input) (*Customer, error) {
	input = normalize(input)
	if err := httpx.Validate(input); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, input)
}

// Delete removes a customer that no quote refers to.
func (s *Service) Delete(ctx context.Context, id int64) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.QuoteCount > 0 {
		return fmt.Errorf("%w: customer has %d quote(s)", shared.ErrInUse, existing.QuoteCount)
	}
	return s.repo.Delete(ctx, id)
}

// Count returns the number of customers.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Export writes every customer as an xlsx workbook.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	all, err := s.repo.All(ctx)
	if err != nil {
		return err
	}
	return ExportXLSX(w, all)
}

func normalize(in Input) Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Company = strings.TrimSpace(in.Company)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.City = strings.TrimSpace(in.City)
	in.Region = strings.TrimSpace(in.Region)
	in.Country = strings.TrimSpace(in.Country)
	return in
}
