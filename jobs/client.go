package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/irrigo/irrigo/internal/visitors"
)

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
	now    func() time.Time
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts), now: time.Now}
}

// EnqueueQuoteEmail schedules delivery of a quote document.
func (c *Client) EnqueueQuoteEmail(ctx context.Context, quoteID int64, to string) error {
	task, err := NewMailQuoteTask(MailQuotePayload{QuoteID: quoteID, To: to})
	if err != nil {
		return err
	}
	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s: %w", TaskMailQuote, err)
	}
	return nil
}

// RecordVisit hands a visit to the worker for storage.
func (c *Client) RecordVisit(ctx context.Context, v visitors.Visit) error {
	task, err := NewVisitTask(v)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task)
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("enqueue %s: %w", TaskVisitorsRecord, err)
	}
	return nil
}

// Trigger enqueues a periodic task immediately.
func (c *Client) Trigger(ctx context.Context, taskType string) (*asynq.TaskInfo, error) {
	task, err := NewSweepTask(taskType, c.now().UTC())
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
