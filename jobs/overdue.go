package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TaskInvoiceOverdueScan is the task type for the overdue invoice sweep.
const TaskInvoiceOverdueScan = "invoice:overdue_scan"

// OverdueScanPayload carries an optional as-of date override in yyyy-mm-dd
// form. Empty means "now".
type OverdueScanPayload struct {
	AsOf string `json:"asOf,omitempty"`
}

// NewOverdueScanTask constructs an Asynq task for the sweep.
func NewOverdueScanTask(payload OverdueScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceOverdueScan, data), nil
}

// OverdueMarker is the slice of the invoice service the sweep needs.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// OverdueScanJob flips sent and partially paid invoices past their due date
// to overdue.
type OverdueScanJob struct {
	invoices OverdueMarker
	logger   *slog.Logger
	clock    func() time.Time
}

// NewOverdueScanJob initialises the overdue sweep handler.
func NewOverdueScanJob(invoices OverdueMarker, logger *slog.Logger) *OverdueScanJob {
	return &OverdueScanJob{
		invoices: invoices,
		logger:   logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one sweep.
func (j *OverdueScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.invoices == nil {
		return errors.New("overdue scan: handler not configured")
	}
	var payload OverdueScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	asOf := j.clock()
	if payload.AsOf != "" {
		parsed, err := time.Parse("2006-01-02", payload.AsOf)
		if err != nil {
			return asynq.SkipRetry
		}
		asOf = parsed
	}

	n, err := j.invoices.MarkOverdue(ctx, asOf)
	if err != nil {
		j.logger.Error("overdue scan failed", slog.Any("error", err))
		return err
	}
	j.logger.Info("overdue scan complete", slog.Int64("flipped", n),
		slog.String("as_of", asOf.Format("2006-01-02")))
	return nil
}
