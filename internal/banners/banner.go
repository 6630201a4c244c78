// Package banners manages time-boxed promotional banners and their rotation.
package banners

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/irrigo/irrigo/internal/platform/db"
)

// Banner is a promotional message shown in the site header.
type Banner struct {
	ID        int64      `json:"id"`
	Message   string     `json:"message"`
	LinkURL   string     `json:"link_url"`
	StartsAt  *time.Time `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at"`
	Active    bool       `json:"active"`
	Position  int        `json:"position"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// LiveAt reports whether the banner should be shown at now. Missing bounds
// leave the window open on that side; the end is exclusive.
func (b Banner) LiveAt(now time.Time) bool {
	if !b.Active {
		return false
	}
	if b.StartsAt != nil && now.Before(*b.StartsAt) {
		return false
	}
	if b.EndsAt != nil && !now.Before(*b.EndsAt) {
		return false
	}
	return true
}

// Input is the writable part of a banner.
type Input struct {
	Message  string     `json:"message" validate:"required,max=300"`
	LinkURL  string     `json:"link_url" validate:"omitempty,url"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
	Active   *bool      `json:"active"`
	Position int        `json:"position" validate:"gte=0"`
}

// Repository persists banners.
type Repository interface {
	ListActive(ctx context.Context, now time.Time) ([]Banner, error)
	ListAll(ctx context.Context) ([]Banner, error)
	Get(ctx context.Context, id int64) (*Banner, error)
	Create(ctx context.Context, input Input) (*Banner, error)
	Update(ctx context.Context, id int64, input Input) (*Banner, error)
	Delete(ctx context.Context, id int64) error
	ExpireEnded(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const selectBanner = `
SELECT id, message, link_url, starts_at, ends_at, active, position, created_at, updated_at
FROM discount_banners`

func scanBanner(row pgx.Row) (*Banner, error) {
	var b Banner
	if err := row.Scan(&b.ID, &b.Message, &b.LinkURL, &b.StartsAt, &b.EndsAt, &b.Active, &b.Position,
		&b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, db.Translate(err)
	}
	return &b, nil
}

func (r *repository) query(ctx context.Context, sql string, args ...any) ([]Banner, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}
	defer rows.Close()
	out := []Banner{}
	for rows.Next() {
		b, err := scanBanner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *repository) ListActive(ctx context.Context, now time.Time) ([]Banner, error) {
	return r.query(ctx, selectBanner+`
WHERE active AND (starts_at IS NULL OR starts_at <= $1) AND (ends_at IS NULL OR ends_at > $1)
ORDER BY position, id`, now)
}

func (r *repository) ListAll(ctx context.Context) ([]Banner, error) {
	return r.query(ctx, selectBanner+" ORDER BY position, id")
}

func (r *repository) Get(ctx context.Context, id int64) (*Banner, error) {
	return scanBanner(r.db.QueryRow(ctx, selectBanner+" WHERE id = $1", id))
}

func active(in Input) bool {
	return in.Active == nil || *in.Active
}

func (r *repository) Create(ctx context.Context, in Input) (*Banner, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO discount_banners (message, link_url, starts_at, ends_at, active, position)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		in.Message, in.LinkURL, in.StartsAt, in.EndsAt, active(in), in.Position).Scan(&id)
	if err != nil {
		return nil, db.Translate(err)
	}
	return r.Get(ctx, id)
}

func (r *repository) Update(ctx context.Context, id int64, in Input) (*Banner, error) {
	tag, err := r.db.Exec(ctx, `
UPDATE discount_banners
SET message = $2, link_url = $3, starts_at = $4, ends_at = $5, active = $6, position = $7, updated_at = NOW()
WHERE id = $1`, id, in.Message, in.LinkURL, in.StartsAt, in.EndsAt, active(in), in.Position)
	if err != nil {
		return nil, db.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, db.Translate(pgx.ErrNoRows)
	}
	return r.Get(ctx, id)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM discount_banners WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows)
	}
	return nil
}

func (r *repository) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
UPDATE discount_banners SET active = FALSE, updated_at = NOW()
WHERE active AND ends_at IS NOT NULL AND ends_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("expire banners: %w", err)
	}
	return tag.RowsAffected(), nil
}
