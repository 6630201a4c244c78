package quotes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/irrigo/irrigo/internal/customers"
	"github.com/irrigo/irrigo/internal/platform/httpx"
	"github.com/irrigo/irrigo/internal/shared"
)

const (
	defaultCurrency     = "KES"
	defaultValidityDays = 30
	dateLayout          = "2006-01-02"
)

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = fmt.Errorf("%w: invalid quote status transition", shared.ErrConflict)

// CustomerLookup resolves the customer a quote is addressed to.
type CustomerLookup interface {
	Get(ctx context.Context, id int64) (*customers.Customer, error)
}

// PDFRenderer converts an HTML document to PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html []byte) ([]byte, error)
}

// MailEnqueuer schedules delivery of a quote by email.
type MailEnqueuer interface {
	EnqueueQuoteEmail(ctx context.Context, quoteID int64, to string) error
}

// Options configures a Service.
type Options struct {
	DefaultVATRate decimal.Decimal
	Company        Company
	Documents      *DocumentRenderer
	PDF            PDFRenderer
	Mailer         MailEnqueuer
	Logger         *slog.Logger
	Now            func() time.Time
}

// Service holds quote business rules.
type Service struct {
	repo      Repository
	customers CustomerLookup
	opts      Options
}

// NewService constructs a Service.
func NewService(repo Repository, customers CustomerLookup, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{repo: repo, customers: customers, opts: opts}
}

func (s *Service) today() time.Time {
	now := s.opts.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Get returns a quote with its items.
func (s *Service) Get(ctx context.Context, id int64) (*Quote, error) {
	return s.repo.Get(ctx, id)
}

// List returns one page of quotes.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Quote, shared.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, shared.Pagination{}, shared.FieldErrors{"status": "unknown status"}
	}
	page, perPage := shared.NormalizePage(filter.Page, filter.PerPage)
	items, total, err := s.repo.List(ctx, filter, perPage, (page-1)*perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if items == nil {
		items = []Quote{}
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// Create stores a new draft quote with a freshly allocated number.
func (s *Service) Create(ctx context.Context, input Input) (*Quote, error) {
	quote, items, err := s.build(ctx, input, nil)
	if err != nil {
		return nil, err
	}
	quote.Status = StatusDraft

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := repo.NextNumber(ctx, quote.IssueDate)
		if err != nil {
			return err
		}
		quote.Number = number
		id, err = repo.Insert(ctx, quote)
		if err != nil {
			return fmt.Errorf("insert quote: %w", err)
		}
		return insertItems(ctx, repo, id, items)
	})
	if err != nil {
		return nil, err
	}
	s.opts.Logger.Info("quote created", slog.Int64("quote_id", id), slog.String("number", quote.Number))
	return s.repo.Get(ctx, id)
}

// Update replaces the header and items of a draft quote in one transaction.
func (s *Service) Update(ctx context.Context, id int64, input Input) (*Quote, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.Status.Editable() {
		return nil, fmt.Errorf("%w: only draft quotes can be edited, quote is %s", shared.ErrConflict, existing.Status)
	}
	quote, items, err := s.build(ctx, input, existing)
	if err != nil {
		return nil, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpdateHeader(ctx, quote); err != nil {
			return fmt.Errorf("update quote: %w", err)
		}
		if err := repo.DeleteItems(ctx, id); err != nil {
			return fmt.Errorf("delete quote items: %w", err)
		}
		return insertItems(ctx, repo, id, items)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a quote and its items.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// ChangeStatus moves a quote along the status lifecycle.
func (s *Service) ChangeStatus(ctx context.Context, id int64, next Status) (*Quote, error) {
	if !next.Valid() {
		return nil, shared.FieldErrors{"status": "unknown status"}
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, existing.Status, next)
	}
	if err := s.repo.UpdateStatus(ctx, id, existing.Status, next); err != nil {
		return nil, err
	}
	s.opts.Logger.Info("quote status changed", slog.Int64("quote_id", id),
		slog.String("from", string(existing.Status)), slog.String("to", string(next)))
	return s.repo.Get(ctx, id)
}

// Duplicate copies a quote into a new draft issued today with the same validity span.
func (s *Service) Duplicate(ctx context.Context, id int64) (*Quote, error) {
	source, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	today := s.today()
	span := source.ValidUntil.Sub(source.IssueDate)
	if span < 0 {
		span = 0
	}
	enabled := source.VATEnabled
	rate := source.VATRate
	input := Input{
		CustomerID: source.CustomerID,
		Title:      source.Title,
		IssueDate:  today.Format(dateLayout),
		ValidUntil: today.Add(span).Format(dateLayout),
		VATEnabled: &enabled,
		VATRate:    &rate,
		Currency:   source.Currency,
		Notes:      source.Notes,
		Items:      make([]ItemInput, 0, len(source.Items)),
	}
	for _, item := range source.Items {
		input.Items = append(input.Items, ItemInput{
			Description: item.Description,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
		})
	}
	return s.Create(ctx, input)
}

// ExpireOverdue marks draft and sent quotes past their validity as expired.
func (s *Service) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireOverdue(ctx, s.today())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.opts.Logger.Info("expired overdue quotes", slog.Int64("count", n))
	}
	return n, nil
}

// Send marks the quote as sent and schedules the email. A quote that is
// already sent is simply sent again. An empty recipient falls back to the
// customer's email address.
func (s *Service) Send(ctx context.Context, id int64, to string) (*Quote, error) {
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	to = strings.TrimSpace(to)
	if to == "" {
		to = quote.CustomerEmail
	}
	if to == "" {
		return nil, shared.FieldErrors{"to": "recipient email is required when the customer has none"}
	}
	if err := httpx.Validator().Var(to, "email"); err != nil {
		return nil, shared.FieldErrors{"to": "must be a valid email address"}
	}
	if s.opts.Mailer == nil {
		return nil, errors.New("quote mailer not configured")
	}
	if quote.Status != StatusSent {
		if quote, err = s.ChangeStatus(ctx, id, StatusSent); err != nil {
			return nil, err
		}
	}
	if err := s.opts.Mailer.EnqueueQuoteEmail(ctx, id, to); err != nil {
		return nil, fmt.Errorf("enqueue quote email: %w", err)
	}
	return quote, nil
}

// Stats summarises quotes by status.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.Stats(ctx)
}

// Totals recomputes the totals of a stored quote.
func (s *Service) Totals(q *Quote) Totals {
	return ComputeQuoteTotals(q.Items, q.VATConfig())
}

// Document assembles everything the printable document needs.
func (s *Service) Document(ctx context.Context, id int64) (Document, error) {
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		return Document{}, err
	}
	doc := Document{Company: s.opts.Company, Quote: *quote, Totals: s.Totals(quote)}
	if quote.CustomerID != nil && s.customers != nil {
		customer, err := s.customers.Get(ctx, *quote.CustomerID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return Document{}, err
		}
		doc.Customer = customer
	}
	return doc, nil
}

// RenderHTML renders the printable document of a quote.
func (s *Service) RenderHTML(ctx context.Context, id int64) ([]byte, *Quote, error) {
	doc, err := s.Document(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	var buf bytes.Buffer
	if err := s.opts.Documents.Render(&buf, doc); err != nil {
		return nil, nil, fmt.Errorf("render quote document: %w", err)
	}
	return buf.Bytes(), &doc.Quote, nil
}

// RenderPDF renders the printable document and converts it to PDF.
func (s *Service) RenderPDF(ctx context.Context, id int64) ([]byte, *Quote, error) {
	if s.opts.PDF == nil {
		return nil, nil, errors.New("pdf renderer not configured")
	}
	html, quote, err := s.RenderHTML(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := s.opts.PDF.RenderHTML(ctx, html)
	if err != nil {
		return nil, nil, fmt.Errorf("convert quote to pdf: %w", err)
	}
	return pdf, quote, nil
}

// All returns every quote matching filter, without paging, for exports.
func (s *Service) All(ctx context.Context, filter ListFilter) ([]Quote, error) {
	items, _, err := s.repo.List(ctx, filter, 0, 0)
	return items, err
}

// build validates input and produces the header and items to persist. When
// existing is set, identity fields are carried over from it.
func (s *Service) build(ctx context.Context, input Input, existing *Quote) (*Quote, []Item, error) {
	input.Currency = strings.ToUpper(strings.TrimSpace(input.Currency))
	input.Title = strings.TrimSpace(input.Title)
	if err := httpx.Validate(input); err != nil {
		return nil, nil, err
	}

	issue := s.today()
	if input.IssueDate != "" {
		issue, _ = time.Parse(dateLayout, input.IssueDate)
	}
	valid := issue.AddDate(0, 0, defaultValidityDays)
	if input.ValidUntil != "" {
		valid, _ = time.Parse(dateLayout, input.ValidUntil)
	}
	if valid.Before(issue) {
		return nil, nil, shared.FieldErrors{"valid_until": "must not be before issue_date"}
	}

	if input.CustomerID != nil && s.customers != nil {
		if _, err := s.customers.Get(ctx, *input.CustomerID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, nil, shared.FieldErrors{"customer_id": "customer does not exist"}
			}
			return nil, nil, fmt.Errorf("verify customer: %w", err)
		}
	}

	for i, in := range input.Items {
		if in.ProductID == nil {
			continue
		}
		exists, err := s.repo.ProductExists(ctx, *in.ProductID)
		if err != nil {
			return nil, nil, fmt.Errorf("verify product: %w", err)
		}
		if !exists {
			return nil, nil, shared.FieldErrors{fmt.Sprintf("items[%d].product_id", i): "product does not exist"}
		}
	}

	quote := &Quote{
		CustomerID: input.CustomerID,
		Title:      input.Title,
		IssueDate:  issue,
		ValidUntil: valid,
		VATEnabled: true,
		VATRate:    s.opts.DefaultVATRate,
		Currency:   defaultCurrency,
		Notes:      strings.TrimSpace(input.Notes),
	}
	if existing != nil {
		quote.ID = existing.ID
		quote.Number = existing.Number
		quote.Status = existing.Status
	}
	if input.VATEnabled != nil {
		quote.VATEnabled = *input.VATEnabled
	}
	if input.VATRate != nil {
		quote.VATRate = *input.VATRate
	}
	if input.Currency != "" {
		quote.Currency = input.Currency
	}

	items := make([]Item, len(input.Items))
	for i, in := range input.Items {
		items[i] = Item{
			Position:    i + 1,
			Description: strings.TrimSpace(in.Description),
			ProductID:   in.ProductID,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			VATRate:     in.VATRate,
		}
	}
	ComputeQuoteTotals(items, quote.VATConfig()).Apply(quote)
	return quote, items, nil
}

func insertItems(ctx context.Context, repo Repository, quoteID int64, items []Item) error {
	for _, item := range items {
		item.QuoteID = quoteID
		if _, err := repo.InsertItem(ctx, item); err != nil {
			return fmt.Errorf("insert quote item %d: %w", item.Position, err)
		}
	}
	return nil
}
