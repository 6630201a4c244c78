// Package visitors records anonymous page visits and summarises them.
package visitors

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/irrigo/irrigo/internal/platform/db"
)

// Visit is one page view. The client IP is only ever stored hashed.
type Visit struct {
	ID        uuid.UUID `json:"id"`
	VisitorID uuid.UUID `json:"visitor_id"`
	Path      string    `json:"path"`
	Referrer  string    `json:"referrer"`
	UserAgent string    `json:"user_agent"`
	IPHash    string    `json:"ip_hash"`
	VisitedAt time.Time `json:"visited_at"`
}

// DailyCount is the number of visits on one UTC day.
type DailyCount struct {
	Day    time.Time `json:"day"`
	Visits int       `json:"visits"`
}

// PathCount is the number of visits to one path.
type PathCount struct {
	Path   string `json:"path"`
	Visits int    `json:"visits"`
}

// Stats summarises visits over a window of days.
type Stats struct {
	Days           int          `json:"days"`
	Total          int          `json:"total"`
	UniqueVisitors int          `json:"unique_visitors"`
	Daily          []DailyCount `json:"daily"`
	TopPaths       []PathCount  `json:"top_paths"`
}

// HashIP returns the salted SHA-256 of ip, hex encoded.
func HashIP(salt, ip string) string {
	if ip == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(salt + "|" + ip))
	return hex.EncodeToString(sum[:])
}

// Repository persists visits.
type Repository interface {
	Insert(ctx context.Context, v Visit) error
	Daily(ctx context.Context, since time.Time) ([]DailyCount, error)
	TopPaths(ctx context.Context, since time.Time, limit int) ([]PathCount, error)
	Totals(ctx context.Context, since time.Time) (total int, unique int, err error)
}

type repository struct {
	db db.DBTX
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

// Insert is idempotent on the visit id so redelivered jobs do not double count.
func (r *repository) Insert(ctx context.Context, v Visit) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO page_visits (id, visitor_id, path, referrer, user_agent, ip_hash, visited_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`, v.ID, v.VisitorID, v.Path, v.Referrer, v.UserAgent, v.IPHash, v.VisitedAt)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

func (r *repository) Daily(ctx context.Context, since time.Time) ([]DailyCount, error) {
	rows, err := r.db.Query(ctx, `
SELECT date_trunc('day', visited_at AT TIME ZONE 'UTC') AS day, COUNT(*)
FROM page_visits WHERE visited_at >= $1
GROUP BY day ORDER BY day`, since)
	if err != nil {
		return nil, fmt.Errorf("daily visits: %w", err)
	}
	defer rows.Close()
	out := []DailyCount{}
	for rows.Next() {
		var d DailyCount
		if err := rows.Scan(&d.Day, &d.Visits); err != nil {
			return nil, err
		}
		d.Day = time.Date(d.Day.Year(), d.Day.Month(), d.Day.Day(), 0, 0, 0, 0, time.UTC)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repository) TopPaths(ctx context.Context, since time.Time, limit int) ([]PathCount, error) {
	rows, err := r.db.Query(ctx, `
SELECT path, COUNT(*) AS visits FROM page_visits WHERE visited_at >= $1
GROUP BY path ORDER BY visits DESC, path LIMIT $2`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("top paths: %w", err)
	}
	defer rows.Close()
	out := []PathCount{}
	for rows.Next() {
		var p PathCount
		if err := rows.Scan(&p.Path, &p.Visits); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) Totals(ctx context.Context, since time.Time) (int, int, error) {
	var total, unique int
	err := r.db.QueryRow(ctx, `
SELECT COUNT(*), COUNT(DISTINCT visitor_id) FROM page_visits WHERE visited_at >= $1`, since).Scan(&total, &unique)
	if err != nil {
		return 0, 0, fmt.Errorf("visit totals: %w", err)
	}
	return total, unique, nil
}
