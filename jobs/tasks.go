package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/irrigo/irrigo/internal/visitors"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueLow holds bulk work such as visit ingestion.
	QueueLow = "low"

	TaskVisitorsRecord = "visitors:record"
	TaskQuotesExpire   = "quotes:expire"
	TaskBannersExpire  = "banners:expire"
	TaskMailQuote      = "mail:quote"
	TaskCatalogWarm    = "catalog:warm"
)

// Schedules maps periodic task types to their cron expressions (UTC).
var Schedules = map[string]string{
	TaskQuotesExpire:  "5 0 * * *",
	TaskBannersExpire: "*/15 * * * *",
	TaskCatalogWarm:   "0 * * * *",
}

// Triggerable lists the task types an operator may enqueue by name.
var Triggerable = []string{TaskQuotesExpire, TaskBannersExpire, TaskCatalogWarm}

// MailQuotePayload identifies the quote to send and its recipient.
type MailQuotePayload struct {
	QuoteID int64  `json:"quote_id"`
	To      string `json:"to"`
}

// SweepPayload carries scheduling metadata for periodic sweeps.
type SweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewMailQuoteTask constructs a mail:quote task.
func NewMailQuoteTask(payload MailQuotePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMailQuote, body, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// NewVisitTask constructs a visitors:record task. The visit id doubles as the
// task id so a visit is enqueued at most once.
func NewVisitTask(v visitors.Visit) (*asynq.Task, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVisitorsRecord, body,
		asynq.Queue(QueueLow), asynq.TaskID(v.ID.String()), asynq.MaxRetry(3)), nil
}

// NewSweepTask constructs one of the periodic tasks named in Schedules.
func NewSweepTask(taskType string, at time.Time) (*asynq.Task, error) {
	if _, ok := Schedules[taskType]; !ok {
		return nil, fmt.Errorf("jobs: unknown periodic task %q", taskType)
	}
	body, err := json.Marshal(SweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault)), nil
}
