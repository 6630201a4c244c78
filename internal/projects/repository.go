package projects

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/irrigo/irrigo/internal/platform/db"
)

// Repository persists projects.
type Repository interface {
	List(ctx context.Context) ([]Project, error)
	Get(ctx context.Context, id int64) (*Project, error)
	Create(ctx context.Context, input Input) (*Project, error)
	Update(ctx context.Context, id int64, input Input) (*Project, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const selectProject = `
SELECT id, slug, title, client_name, region, status, crop, area_hectares, summary, description,
       before_images, after_images, water_saved_pct, yield_improvement_pct, completed_on, featured,
       created_at, updated_at
FROM projects`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.ClientName, &p.Region, &p.Status, &p.Crop,
		&p.AreaHectares, &p.Summary, &p.Description, &p.BeforeImages, &p.AfterImages, &p.WaterSavedPct,
		&p.YieldImprovementPct, &p.CompletedOn, &p.Featured, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, db.Translate(err)
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context) ([]Project, error) {
	rows, err := r.db.Query(ctx, selectProject+" ORDER BY featured DESC, completed_on DESC NULLS LAST, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	out := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*Project, error) {
	return scanProject(r.db.QueryRow(ctx, selectProject+" WHERE id = $1", id))
}

func writeArgs(in Input) []any {
	var completed *time.Time
	if in.CompletedOn != "" {
		if t, err := time.Parse("2006-01-02", in.CompletedOn); err == nil {
			completed = &t
		}
	}
	before, after := in.BeforeImages, in.AfterImages
	if before == nil {
		before = []string{}
	}
	if after == nil {
		after = []string{}
	}
	return []any{in.Slug, in.Title, in.ClientName, in.Region, string(in.Status), in.Crop, in.AreaHectares,
		in.Summary, in.Description, before, after, in.WaterSavedPct, in.YieldImprovementPct, completed, in.Featured}
}

func (r *repository) Create(ctx context.Context, in Input) (*Project, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO projects (slug, title, client_name, region, status, crop, area_hectares, summary, description,
                      before_images, after_images, water_saved_pct, yield_improvement_pct, completed_on, featured)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING id`, writeArgs(in)...).Scan(&id)
	if err != nil {
		return nil, db.Translate(err)
	}
	return r.Get(ctx, id)
}

func (r *repository) Update(ctx context.Context, id int64, in Input) (*Project, error) {
	tag, err := r.db.Exec(ctx, `
UPDATE projects
SET slug = $2, title = $3, client_name = $4, region = $5, status = $6, crop = $7, area_hectares = $8,
    summary = $9, description = $10, before_images = $11, after_images = $12, water_saved_pct = $13,
    yield_improvement_pct = $14, completed_on = $15, featured = $16, updated_at = NOW()
WHERE id = $1`, append([]any{id}, writeArgs(in)...)...)
	if err != nil {
		return nil, db.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, db.Translate(pgx.ErrNoRows)
	}
	return r.Get(ctx, id)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows)
	}
	return nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n)
	return n, err
}
