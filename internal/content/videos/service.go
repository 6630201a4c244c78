package videos

import (
	"context"
	"strings"

	"github.com/irrigo/irrigo/internal/platform/httpx"
	"github.com/irrigo/irrigo/internal/shared"
)

// Events receives counter increments for metrics.
type Events interface {
	ContentEvent(kind, event string)
}

// Service holds video business rules.
type Service struct {
	repo   Repository
	events Events
}

// NewService constructs a Service. events may be nil.
func NewService(repo Repository, events Events) *Service {
	return &Service{repo: repo, events: events}
}

// List returns one page of videos.
func (s *Service) List(ctx context.Context, filter Filter) ([]Video, shared.Pagination, error) {
	page, perPage := shared.NormalizePage(filter.Page, filter.PerPage)
	items, total, err := s.repo.List(ctx, filter, perPage, (page-1)*perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if items == nil {
		items = []Video{}
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// Get returns a video; unpublished videos are hidden when publishedOnly is set.
func (s *Service) Get(ctx context.Context, id int64, publishedOnly bool) (*Video, error) {
	return s.repo.Get(ctx, id, publishedOnly)
}

// RecordView increments the view counter and returns the new value.
func (s *Service) RecordView(ctx context.Context, id int64) (int64, error) {
	return s.increment(ctx, id, CounterViews, "view")
}

// Like increments the like counter and returns the new value.
func (s *Service) Like(ctx context.Context, id int64) (int64, error) {
	return s.increment(ctx, id, CounterLikes, "like")
}

func (s *Service) increment(ctx context.Context, id int64, counter Counter, event string) (int64, error) {
	value, err := s.repo.Increment(ctx, id, counter)
	if err != nil {
		return 0, err
	}
	if s.events != nil {
		s.events.ContentEvent("video", event)
	}
	return value, nil
}

// Top returns the most viewed published videos.
func (s *Service) Top(ctx context.Context, limit int) ([]Video, error) {
	return s.repo.Top(ctx, limit)
}

// Create validates and stores a video.
func (s *Service) Create(ctx context.Context, input Input) (*Video, error) {
	input = normalize(input)
	if err := httpx.Validate(input); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, input)
}

// Update validates and overwrites a video. Counters are left untouched.
func (s *Service) Update(ctx context.Context, id int64, input Input) (*Video, error) {
	input = normalize(input)
	if err := httpx.Validate(input); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, input)
}

// Delete removes a video.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func normalize(in Input) Input {
	in.Title = strings.TrimSpace(in.Title)
	in.URL = strings.TrimSpace(in.URL)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	return in
}
