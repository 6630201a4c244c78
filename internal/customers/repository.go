package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/irrigo/irrigo/internal/platform/db"
)

// Repository persists customers.
type Repository interface {
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Customer, int, error)
	Get(ctx context.Context, id int64) (*Customer, error)
	Create(ctx context.Context, input Input) (*Customer, error)
	Update(ctx context.Context, id int64, input Input) (*Customer, error)
	Delete(ctx context.Context, id int64) error
	All(ctx context.Context) ([]Customer, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const selectCustomer = `
SELECT c.id, c.name, c.company, c.email, c.phone, c.address_line, c.city, c.region, c.country,
       c.notes, (SELECT COUNT(*) FROM quotes q WHERE q.customer_id = c.id), c.created_at, c.updated_at
FROM customers c`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Company, &c.Email, &c.Phone, &c.AddressLine, &c.City,
		&c.Region, &c.Country, &c.Notes, &c.QuoteCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, db.Translate(err)
	}
	return &c, nil
}

func collectCustomers(rows pgx.Rows) ([]Customer, error) {
	defer rows.Close()
	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *repository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Customer, int, error) {
	var conditions []string
	var args []any
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+term+"%")
		conditions = append(conditions, fmt.Sprintf("(c.name ILIKE $%[1]d OR c.company ILIKE $%[1]d OR c.email ILIKE $%[1]d OR c.phone ILIKE $%[1]d)", len(args)))
	}
	if region := strings.TrimSpace(filter.Region); region != "" {
		args = append(args, region)
		conditions = append(conditions, fmt.Sprintf("lower(c.region) = lower($%d)", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM customers c"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf("%s%s ORDER BY c.name, c.id LIMIT $%d OFFSET $%d", selectCustomer, where, len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	items, err := collectCustomers(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Customer, error) {
	return scanCustomer(r.db.QueryRow(ctx, selectCustomer+" WHERE c.id = $1", id))
}

func (r *repository) Create(ctx context.Context, in Input) (*Customer, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO customers (name, company, email, phone, address_line, city, region, country, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`, in.Name, in.Company, in.Email, in.Phone, in.AddressLine, in.City, in.Region, in.Country, in.Notes).Scan(&id)
	if err != nil {
		return nil, db.Translate(err)
	}
	return r.Get(ctx, id)
}

func (r *repository) Update(ctx context.Context, id int64, in Input) (*Customer, error) {
	tag, err := r.db.Exec(ctx, `
UPDATE customers
SET name = $2, company = $3, email = $4, phone = $5, address_line = $6, city = $7,
    region = $8, country = $9, notes = $10, updated_at = NOW()
WHERE id = $1`, id, in.Name, in.Company, in.Email, in.Phone, in.AddressLine, in.City, in.Region, in.Country, in.Notes)
	if err != nil {
		return nil, db.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, db.Translate(pgx.ErrNoRows)
	}
	return r.Get(ctx, id)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows)
	}
	return nil
}

func (r *repository) All(ctx context.Context) ([]Customer, error) {
	rows, err := r.db.Query(ctx, selectCustomer+" ORDER BY c.name, c.id")
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return collectCustomers(rows)
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&n)
	return n, err
}
