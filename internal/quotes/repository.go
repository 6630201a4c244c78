package quotes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/irrigo/irrigo/internal/platform/db"
	"github.com/irrigo/irrigo/internal/shared"
)

// Repository persists quotes and their items.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	NextNumber(ctx context.Context, issued time.Time) (string, error)
	Insert(ctx context.Context, q *Quote) (int64, error)
	UpdateHeader(ctx context.Context, q *Quote) error
	DeleteItems(ctx context.Context, quoteID int64) error
	InsertItem(ctx context.Context, item Item) (int64, error)
	ProductExists(ctx context.Context, id int64) (bool, error)
	Get(ctx context.Context, id int64) (*Quote, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Quote, int, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status) error
	Delete(ctx context.Context, id int64) error
	ExpireOverdue(ctx context.Context, today time.Time) (int64, error)
	Stats(ctx context.Context) (Stats, error)
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

// NextNumber allocates QT-YYMM-NNNN from the per-month document sequence.
func (r *repository) NextNumber(ctx context.Context, issued time.Time) (string, error) {
	var seq int64
	err := r.db.QueryRow(ctx, `
INSERT INTO document_sequences (doc_type, period, seq)
VALUES ('QT', $1, 1)
ON CONFLICT (doc_type, period)
DO UPDATE SET seq = document_sequences.seq + 1
RETURNING seq`, issued.Format("200601")).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("next quote number: %w", err)
	}
	return FormatNumber(issued, seq), nil
}

// FormatNumber renders a quote number for a period and sequence.
func FormatNumber(issued time.Time, seq int64) string {
	return fmt.Sprintf("QT-%s-%04d", issued.Format("0601"), seq)
}

func (r *repository) Insert(ctx context.Context, q *Quote) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO quotes (number, customer_id, title, status, issue_date, valid_until, vat_enabled, vat_rate,
                    currency, notes, subtotal, tax, total)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING id`,
		q.Number, q.CustomerID, q.Title, q.Status, q.IssueDate, q.ValidUntil, q.VATEnabled, q.VATRate,
		q.Currency, q.Notes, q.Subtotal, q.Tax, q.Total).Scan(&id)
	if err != nil {
		return 0, db.Translate(err)
	}
	return id, nil
}

func (r *repository) UpdateHeader(ctx context.Context, q *Quote) error {
	tag, err := r.db.Exec(ctx, `
UPDATE quotes
SET customer_id = $2, title = $3, issue_date = $4, valid_until = $5, vat_enabled = $6, vat_rate = $7,
    currency = $8, notes = $9, subtotal = $10, tax = $11, total = $12, updated_at = NOW()
WHERE id = $1 AND status = 'draft'`,
		q.ID, q.CustomerID, q.Title, q.IssueDate, q.ValidUntil, q.VATEnabled, q.VATRate,
		q.Currency, q.Notes, q.Subtotal, q.Tax, q.Total)
	if err != nil {
		return db.Translate(err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quotes WHERE id = $1)`, q.ID).Scan(&exists); err != nil {
		return db.Translate(err)
	}
	if exists {
		return fmt.Errorf("%w: quote is no longer a draft", shared.ErrConflict)
	}
	return shared.ErrNotFound
}

func (r *repository) DeleteItems(ctx context.Context, quoteID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM quote_items WHERE quote_id = $1`, quoteID)
	return db.Translate(err)
}

func (r *repository) InsertItem(ctx context.Context, item Item) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO quote_items (quote_id, position, description, product_id, quantity, unit_price, vat_rate)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`,
		item.QuoteID, item.Position, item.Description, item.ProductID, item.Quantity, item.UnitPrice,
		nullDecimal(item.VATRate)).Scan(&id)
	if err != nil {
		return 0, db.Translate(err)
	}
	return id, nil
}

func (r *repository) ProductExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, db.Translate(err)
	}
	return exists, nil
}

const selectQuote = `
SELECT q.id, q.number, q.customer_id, COALESCE(NULLIF(c.company, ''), c.name, ''), COALESCE(c.email, ''),
       q.title, q.status, q.issue_date, q.valid_until, q.vat_enabled, q.vat_rate, q.currency, q.notes,
       q.subtotal, q.tax, q.total, q.created_at, q.updated_at
FROM quotes q
LEFT JOIN customers c ON c.id = q.customer_id`

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	err := row.Scan(&q.ID, &q.Number, &q.CustomerID, &q.CustomerName, &q.CustomerEmail,
		&q.Title, &q.Status, &q.IssueDate, &q.ValidUntil, &q.VATEnabled, &q.VATRate, &q.Currency, &q.Notes,
		&q.Subtotal, &q.Tax, &q.Total, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, db.Translate(err)
	}
	return &q, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Quote, error) {
	q, err := scanQuote(r.db.QueryRow(ctx, selectQuote+` WHERE q.id = $1`, id))
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `
SELECT id, quote_id, position, description, product_id, quantity, unit_price, vat_rate
FROM quote_items
WHERE quote_id = $1
ORDER BY position, id`, id)
	if err != nil {
		return nil, fmt.Errorf("load quote items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item Item
		var rate decimal.NullDecimal
		if err := rows.Scan(&item.ID, &item.QuoteID, &item.Position, &item.Description, &item.ProductID,
			&item.Quantity, &item.UnitPrice, &rate); err != nil {
			return nil, err
		}
		if rate.Valid {
			item.VATRate = &rate.Decimal
		}
		q.Items = append(q.Items, item)
	}
	return q, rows.Err()
}

func (r *repository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Quote, int, error) {
	var conditions []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != "" {
		add("q.status = $%d", filter.Status)
	}
	if filter.CustomerID > 0 {
		add("q.customer_id = $%d", filter.CustomerID)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		add("(q.number ILIKE $%[1]d OR q.title ILIKE $%[1]d OR c.name ILIKE $%[1]d OR c.company ILIKE $%[1]d)", "%"+term+"%")
	}
	if filter.From != nil {
		add("q.issue_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("q.issue_date <= $%d", *filter.To)
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM quotes q LEFT JOIN customers c ON c.id = q.customer_id` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count quotes: %w", err)
	}

	query := selectQuote + where + " ORDER BY q.issue_date DESC, q.id DESC"
	if limit > 0 {
		args = append(args, limit, offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()
	var out []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *q)
	}
	return out, total, rows.Err()
}

// UpdateStatus moves a quote from one status to another. It reports
// shared.ErrConflict when the stored status is no longer from.
func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE quotes SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return db.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quote %d is no longer %s", shared.ErrConflict, id, from)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quotes WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ExpireOverdue(ctx context.Context, today time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
UPDATE quotes SET status = 'expired', updated_at = NOW()
WHERE status IN ('draft', 'sent') AND valid_until < $1`, today)
	if err != nil {
		return 0, db.Translate(err)
	}
	return tag.RowsAffected(), nil
}

func (r *repository) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByStatus: map[Status]int{}, AcceptedValue: decimal.Zero}
	rows, err := r.db.Query(ctx, `
SELECT status, COUNT(*), COALESCE(SUM(total), 0)
FROM quotes
GROUP BY status`)
	if err != nil {
		return stats, fmt.Errorf("quote stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status Status
		var count int
		var value decimal.Decimal
		if err := rows.Scan(&status, &count, &value); err != nil {
			return stats, err
		}
		stats.ByStatus[status] = count
		if status == StatusAccepted {
			stats.AcceptedValue = value
		}
	}
	return stats, rows.Err()
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
