package visitors

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/irrigo/irrigo/internal/shared"
)

const (
	maxPathLength      = 512
	maxUserAgentLength = 512
	defaultStatsDays   = 30
	maxStatsDays       = 366
	topPathsLimit      = 10
)

// Recorder hands a visit off for storage, typically through the job queue.
type Recorder interface {
	RecordVisit(ctx context.Context, v Visit) error
}

// Hit is what the public endpoint knows about a page view.
type Hit struct {
	VisitorID uuid.UUID
	Path      string
	Referrer  string
	UserAgent string
	IP        string
}

// Service records and summarises visits.
type Service struct {
	repo     Repository
	recorder Recorder
	salt     string
	now      func() time.Time
	logger   *slog.Logger
}

// NewService constructs a Service. A nil recorder stores visits directly.
func NewService(repo Repository, recorder Recorder, salt string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, recorder: recorder, salt: salt, now: time.Now, logger: logger}
}

// Track builds a Visit from hit and records it. Enqueue failures fall back to
// a direct insert so visits are not dropped while the queue is down.
func (s *Service) Track(ctx context.Context, hit Hit) (Visit, error) {
	path := strings.TrimSpace(hit.Path)
	if path == "" || !strings.HasPrefix(path, "/") {
		return Visit{}, shared.FieldErrors{"path": "must be an absolute site path"}
	}
	visit := Visit{
		ID:        uuid.New(),
		VisitorID: hit.VisitorID,
		Path:      truncate(path, maxPathLength),
		Referrer:  truncate(strings.TrimSpace(hit.Referrer), maxPathLength),
		UserAgent: truncate(hit.UserAgent, maxUserAgentLength),
		IPHash:    HashIP(s.salt, hit.IP),
		VisitedAt: s.now().UTC(),
	}
	if s.recorder != nil {
		err := s.recorder.RecordVisit(ctx, visit)
		if err == nil {
			return visit, nil
		}
		s.logger.Warn("enqueue visit, storing directly", slog.Any("error", err))
	}
	if err := s.repo.Insert(ctx, visit); err != nil {
		return Visit{}, err
	}
	return visit, nil
}

// Store persists a visit delivered by the job queue.
func (s *Service) Store(ctx context.Context, v Visit) error {
	return s.repo.Insert(ctx, v)
}

// Stats summarises the last days days, today included.
func (s *Service) Stats(ctx context.Context, days int) (Stats, error) {
	if days <= 0 {
		days = defaultStatsDays
	}
	days = min(days, maxStatsDays)
	now := s.now().UTC()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))

	stats := Stats{Days: days}
	var err error
	if stats.Total, stats.UniqueVisitors, err = s.repo.Totals(ctx, since); err != nil {
		return Stats{}, err
	}
	counts, err := s.repo.Daily(ctx, since)
	if err != nil {
		return Stats{}, err
	}
	stats.Daily = fillDays(since, days, counts)
	if stats.TopPaths, err = s.repo.TopPaths(ctx, since, topPathsLimit); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// fillDays returns one entry per day from since, with zero for missing days.
func fillDays(since time.Time, days int, counts []DailyCount) []DailyCount {
	byDay := make(map[time.Time]int, len(counts))
	for _, c := range counts {
		byDay[c.Day] = c.Visits
	}
	out := make([]DailyCount, days)
	for i := range out {
		day := since.AddDate(0, 0, i)
		out[i] = DailyCount{Day: day, Visits: byDay[day]}
	}
	return out
}

// truncate cuts s to at most n bytes without splitting a rune. Invalid UTF-8
// is replaced first since Postgres text columns reject it.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
