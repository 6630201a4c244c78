package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/irrigo/irrigo/internal/jobs"
	"github.com/irrigo/irrigo/internal/visitors"
)

// QuoteExpirer is satisfied by the quotes service.
type QuoteExpirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// BannerExpirer is satisfied by the banners service.
type BannerExpirer interface {
	ExpireEnded(ctx context.Context) (int64, error)
}

// VisitStore is satisfied by the visitors service.
type VisitStore interface {
	Store(ctx context.Context, v visitors.Visit) error
}

// Warmer preloads a cache and reports how many records it holds.
type Warmer interface {
	Warm(ctx context.Context) (int, error)
}

// QuoteSender delivers a quote document by email.
type QuoteSender interface {
	SendQuote(ctx context.Context, quoteID int64, to string) error
}

// Handlers processes every task type the worker serves.
type Handlers struct {
	Quotes  QuoteExpirer
	Banners BannerExpirer
	Visits  VisitStore
	Warmers []Warmer
	Mailer  QuoteSender
	Metrics *jobmetrics.Metrics
	Logger  *slog.Logger
}

// TaskHandlers lists the handlers for registration with NewWorker.
func (h *Handlers) TaskHandlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskVisitorsRecord, Handler: h.RecordVisit},
		{Type: TaskQuotesExpire, Handler: h.ExpireQuotes},
		{Type: TaskBannersExpire, Handler: h.ExpireBanners},
		{Type: TaskMailQuote, Handler: h.MailQuote},
		{Type: TaskCatalogWarm, Handler: h.WarmCatalog},
	}
}

func (h *Handlers) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// RecordVisit stores a visit enqueued by the public API.
func (h *Handlers) RecordVisit(ctx context.Context, t *asynq.Task) (err error) {
	var visit visitors.Visit
	if err := json.Unmarshal(t.Payload(), &visit); err != nil {
		return fmt.Errorf("decode visit: %v: %w", err, asynq.SkipRetry)
	}
	tracker := h.Metrics.Track(TaskVisitorsRecord)
	defer func() { err = tracker.End(err) }()

	if err := h.Visits.Store(ctx, visit); err != nil {
		return err
	}
	h.Metrics.AddProcessed(TaskVisitorsRecord, 1)
	return nil
}

// ExpireQuotes moves overdue draft and sent quotes to expired.
func (h *Handlers) ExpireQuotes(ctx context.Context, t *asynq.Task) (err error) {
	if err := decodeSweep(t); err != nil {
		return err
	}
	tracker := h.Metrics.Track(TaskQuotesExpire)
	defer func() { err = tracker.End(err) }()

	n, err := h.Quotes.ExpireOverdue(ctx)
	if err != nil {
		h.logger().Error("expire quotes", slog.Any("error", err))
		return err
	}
	h.Metrics.AddProcessed(TaskQuotesExpire, n)
	h.logger().Info("expired quotes", slog.Int64("count", n))
	return nil
}

// ExpireBanners deactivates banners whose window has closed.
func (h *Handlers) ExpireBanners(ctx context.Context, t *asynq.Task) (err error) {
	if err := decodeSweep(t); err != nil {
		return err
	}
	tracker := h.Metrics.Track(TaskBannersExpire)
	defer func() { err = tracker.End(err) }()

	n, err := h.Banners.ExpireEnded(ctx)
	if err != nil {
		h.logger().Error("expire banners", slog.Any("error", err))
		return err
	}
	h.Metrics.AddProcessed(TaskBannersExpire, n)
	if n > 0 {
		h.logger().Info("expired banners", slog.Int64("count", n))
	}
	return nil
}

// MailQuote renders a quote and emails it to the recipient.
func (h *Handlers) MailQuote(ctx context.Context, t *asynq.Task) (err error) {
	var payload MailQuotePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode mail payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.QuoteID <= 0 || payload.To == "" {
		return fmt.Errorf("mail payload missing quote or recipient: %w", asynq.SkipRetry)
	}
	tracker := h.Metrics.Track(TaskMailQuote)
	defer func() { err = tracker.End(err) }()

	logger := h.logger().With(slog.Int64("quote_id", payload.QuoteID))
	if err := h.Mailer.SendQuote(ctx, payload.QuoteID, payload.To); err != nil {
		logger.Error("mail quote", slog.Any("error", err))
		return err
	}
	h.Metrics.AddProcessed(TaskMailQuote, 1)
	logger.Info("quote mailed")
	return nil
}

// WarmCatalog preloads the public catalog and project caches.
func (h *Handlers) WarmCatalog(ctx context.Context, t *asynq.Task) (err error) {
	if err := decodeSweep(t); err != nil {
		return err
	}
	tracker := h.Metrics.Track(TaskCatalogWarm)
	defer func() { err = tracker.End(err) }()

	var errs []error
	total := 0
	for _, w := range h.Warmers {
		n, err := w.Warm(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		total += n
	}
	h.Metrics.AddProcessed(TaskCatalogWarm, int64(total))
	if err := errors.Join(errs...); err != nil {
		h.logger().Error("warm caches", slog.Any("error", err))
		return err
	}
	return nil
}

// decodeSweep accepts an empty payload for tasks enqueued by hand.
func decodeSweep(t *asynq.Task) error {
	if len(t.Payload()) == 0 {
		return nil
	}
	var payload SweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return nil
}
