// Package videos manages the video library and its view and like counters.
package videos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/irrigo/irrigo/internal/platform/db"
)

// Video is a content-marketing clip hosted elsewhere.
type Video struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	URL             string    `json:"url"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	Category        string    `json:"category"`
	DurationSeconds int       `json:"duration_seconds"`
	Views           int64     `json:"views"`
	Likes           int64     `json:"likes"`
	Published       bool      `json:"published"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Input is the writable part of a video.
type Input struct {
	Title           string `json:"title" validate:"required,max=200"`
	Description     string `json:"description" validate:"max=4000"`
	URL             string `json:"url" validate:"required,url"`
	ThumbnailURL    string `json:"thumbnail_url" validate:"omitempty,url"`
	Category        string `json:"category" validate:"max=60"`
	DurationSeconds int    `json:"duration_seconds" validate:"gte=0"`
	Published       *bool  `json:"published"`
}

// Filter narrows a video listing.
type Filter struct {
	Category      string
	PublishedOnly bool
	Page          int
	PerPage       int
}

// Counter names a counter column.
type Counter string

const (
	CounterViews Counter = "views"
	CounterLikes Counter = "likes"
)

// Repository persists videos.
type Repository interface {
	List(ctx context.Context, filter Filter, limit, offset int) ([]Video, int, error)
	Get(ctx context.Context, id int64, publishedOnly bool) (*Video, error)
	Create(ctx context.Context, input Input) (*Video, error)
	Update(ctx context.Context, id int64, input Input) (*Video, error)
	Delete(ctx context.Context, id int64) error
	Increment(ctx context.Context, id int64, counter Counter) (int64, error)
	Top(ctx context.Context, limit int) ([]Video, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const selectVideo = `
SELECT id, title, description, url, thumbnail_url, category, duration_seconds, views, likes,
       published, created_at, updated_at
FROM videos`

func scanVideo(row pgx.Row) (*Video, error) {
	var v Video
	if err := row.Scan(&v.ID, &v.Title, &v.Description, &v.URL, &v.ThumbnailURL, &v.Category,
		&v.DurationSeconds, &v.Views, &v.Likes, &v.Published, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, db.Translate(err)
	}
	return &v, nil
}

func collect(rows pgx.Rows) ([]Video, error) {
	defer rows.Close()
	out := []Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (r *repository) List(ctx context.Context, filter Filter, limit, offset int) ([]Video, int, error) {
	var conditions []string
	var args []any
	if filter.PublishedOnly {
		conditions = append(conditions, "published")
	}
	if c := strings.TrimSpace(filter.Category); c != "" {
		args = append(args, c)
		conditions = append(conditions, fmt.Sprintf("lower(category) = lower($%d)", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM videos"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}
	args = append(args, limit, offset)
	rows, err := r.db.Query(ctx, fmt.Sprintf("%s%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		selectVideo, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list videos: %w", err)
	}
	items, err := collect(rows)
	return items, total, err
}

func (r *repository) Get(ctx context.Context, id int64, publishedOnly bool) (*Video, error) {
	query := selectVideo + " WHERE id = $1"
	if publishedOnly {
		query += " AND published"
	}
	return scanVideo(r.db.QueryRow(ctx, query, id))
}

func published(in Input) bool {
	return in.Published == nil || *in.Published
}

func (r *repository) Create(ctx context.Context, in Input) (*Video, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO videos (title, description, url, thumbnail_url, category, duration_seconds, published)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`, in.Title, in.Description, in.URL, in.ThumbnailURL, in.Category, in.DurationSeconds, published(in)).Scan(&id)
	if err != nil {
		return nil, db.Translate(err)
	}
	return r.Get(ctx, id, false)
}

func (r *repository) Update(ctx context.Context, id int64, in Input) (*Video, error) {
	tag, err := r.db.Exec(ctx, `
UPDATE videos
SET title = $2, description = $3, url = $4, thumbnail_url = $5, category = $6,
    duration_seconds = $7, published = $8, updated_at = NOW()
WHERE id = $1`, id, in.Title, in.Description, in.URL, in.ThumbnailURL, in.Category, in.DurationSeconds, published(in))
	if err != nil {
		return nil, db.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, db.Translate(pgx.ErrNoRows)
	}
	return r.Get(ctx, id, false)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows)
	}
	return nil
}

// Increment bumps a counter in a single statement and returns the stored value.
func (r *repository) Increment(ctx context.Context, id int64, counter Counter) (int64, error) {
	var query string
	switch counter {
	case CounterViews:
		query = `UPDATE videos SET views = views + 1 WHERE id = $1 AND published RETURNING views`
	case CounterLikes:
		query = `UPDATE videos SET likes = likes + 1 WHERE id = $1 AND published RETURNING likes`
	default:
		return 0, fmt.Errorf("unknown counter %q", counter)
	}
	var value int64
	if err := r.db.QueryRow(ctx, query, id).Scan(&value); err != nil {
		return 0, db.Translate(err)
	}
	return value, nil
}

func (r *repository) Top(ctx context.Context, limit int) ([]Video, error) {
	rows, err := r.db.Query(ctx, selectVideo+" WHERE published ORDER BY views DESC, id LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("top videos: %w", err)
	}
	return collect(rows)
}
