package banners

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/irrigo/irrigo/internal/platform/httpx"
	"github.com/irrigo/irrigo/internal/shared"
)

// Service holds banner business rules. When a Rotator is attached, every
// admin write reloads it.
type Service struct {
	repo    Repository
	rotator *Rotator
	now     func() time.Time
	logger  *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, now: time.Now, logger: logger}
}

// AttachRotator wires a rotator that is reloaded after writes.
func (s *Service) AttachRotator(r *Rotator) {
	s.rotator = r
}

// Rotator returns the attached rotator, if any.
func (s *Service) Rotator() *Rotator {
	return s.rotator
}

// Live lists the banners whose window contains the current time.
func (s *Service) Live(ctx context.Context) ([]Banner, error) {
	return s.repo.ListActive(ctx, s.now())
}

// All lists every banner for the admin.
func (s *Service) All(ctx context.Context) ([]Banner, error) {
	return s.repo.ListAll(ctx)
}

// Get returns one banner.
func (s *Service) Get(ctx context.Context, id int64) (*Banner, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a banner.
func (s *Service) Create(ctx context.Context, input Input) (*Banner, error) {
	if err := validate(&input); err != nil {
		return nil, err
	}
	banner, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.reload(ctx)
	return banner, nil
}

// Update validates and overwrites a banner.
func (s *Service) Update(ctx context.Context, id int64, input Input) (*Banner, error) {
	if err := validate(&input); err != nil {
		return nil, err
	}
	banner, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}
	s.reload(ctx)
	return banner, nil
}

// Delete removes a banner.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.reload(ctx)
	return nil
}

// ExpireEnded deactivates banners whose window has closed.
func (s *Service) ExpireEnded(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireEnded(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired banners", slog.Int64("count", n))
		s.reload(ctx)
	}
	return n, nil
}

func (s *Service) reload(ctx context.Context) {
	if s.rotator != nil {
		s.rotator.Reload(ctx)
	}
}

func validate(in *Input) error {
	in.Message = strings.TrimSpace(in.Message)
	if err := httpx.Validate(*in); err != nil {
		return err
	}
	if in.StartsAt != nil && in.EndsAt != nil && !in.EndsAt.After(*in.StartsAt) {
		return shared.FieldErrors{"ends_at": "must be after starts_at"}
	}
	return nil
}
