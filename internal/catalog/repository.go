package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/irrigo/irrigo/internal/platform/db"
)

// Repository persists products.
type Repository interface {
	ListActive(ctx context.Context) ([]Product, error)
	ListAll(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, input Input) (*Product, error)
	Update(ctx context.Context, id int64, input Input) (*Product, error)
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

const selectProduct = `
SELECT id, slug, name, category, summary, description, image_url, price, variants,
       brochure_url, video_url, guide_url, featured, is_active, created_at, updated_at
FROM products`

func scanProduct(row pgx.Row) (*Product, error) {
	var (
		p        Product
		price    decimal.NullDecimal
		variants []byte
	)
	if err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Category, &p.Summary, &p.Description, &p.ImageURL,
		&price, &variants, &p.BrochureURL, &p.VideoURL, &p.GuideURL, &p.Featured, &p.Active,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, db.Translate(err)
	}
	if price.Valid {
		p.Price = &price.Decimal
	}
	p.Variants = []Variant{}
	if len(variants) > 0 {
		if err := json.Unmarshal(variants, &p.Variants); err != nil {
			return nil, fmt.Errorf("decode variants of product %d: %w", p.ID, err)
		}
	}
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *repository) ListActive(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, selectProduct+" WHERE is_active ORDER BY featured DESC, name, id")
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}
	return collectProducts(rows)
}

func (r *repository) ListAll(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, selectProduct+" ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return collectProducts(rows)
}

func (r *repository) Get(ctx context.Context, id int64) (*Product, error) {
	return scanProduct(r.db.QueryRow(ctx, selectProduct+" WHERE id = $1", id))
}

func writeArgs(in Input) ([]any, error) {
	variants := in.Variants
	if variants == nil {
		variants = []Variant{}
	}
	raw, err := json.Marshal(variants)
	if err != nil {
		return nil, err
	}
	var price decimal.NullDecimal
	if in.Price != nil {
		price = decimal.NullDecimal{Decimal: *in.Price, Valid: true}
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return []any{in.Slug, in.Name, string(in.Category), in.Summary, in.Description, in.ImageURL, price,
		string(raw), in.BrochureURL, in.VideoURL, in.GuideURL, in.Featured, active}, nil
}

func (r *repository) Create(ctx context.Context, in Input) (*Product, error) {
	args, err := writeArgs(in)
	if err != nil {
		return nil, err
	}
	var id int64
	err = r.db.QueryRow(ctx, `
INSERT INTO products (slug, name, category, summary, description, image_url, price, variants,
                      brochure_url, video_url, guide_url, featured, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10, $11, $12, $13)
RETURNING id`, args...).Scan(&id)
	if err != nil {
		return nil, db.Translate(err)
	}
	return r.Get(ctx, id)
}

func (r *repository) Update(ctx context.Context, id int64, in Input) (*Product, error) {
	args, err := writeArgs(in)
	if err != nil {
		return nil, err
	}
	tag, err := r.db.Exec(ctx, `
UPDATE products
SET slug = $2, name = $3, category = $4, summary = $5, description = $6, image_url = $7, price = $8,
    variants = $9::jsonb, brochure_url = $10, video_url = $11, guide_url = $12, featured = $13,
    is_active = $14, updated_at = NOW()
WHERE id = $1`, append([]any{id}, args...)...)
	if err != nil {
		return nil, db.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, db.Translate(pgx.ErrNoRows)
	}
	return r.Get(ctx, id)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
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
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE is_active`).Scan(&n)
	return n, err
}
