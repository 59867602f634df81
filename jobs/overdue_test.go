package jobs

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMarker struct {
	asOf    time.Time
	flipped int64
	err     error
}

func (m *recordingMarker) MarkOverdue(_ context.Context, asOf time.Time) (int64, error) {
	m.asOf = asOf
	return m.flipped, m.err
}

func TestOverdueScanUsesClock(t *testing.T) {
	marker := &recordingMarker{flipped: 3}
	job := NewOverdueScanJob(marker, slog.New(slog.DiscardHandler))
	fixed := time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC)
	job.clock = func() time.Time { return fixed }

	task, err := NewOverdueScanTask(OverdueScanPayload{})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, fixed, marker.asOf)
}

func TestOverdueScanAsOfOverride(t *testing.T) {
	marker := &recordingMarker{}
	job := NewOverdueScanJob(marker, slog.New(slog.DiscardHandler))

	task, err := NewOverdueScanTask(OverdueScanPayload{AsOf: "2026-01-15"})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), marker.asOf)
}

func TestOverdueScanBadPayloadSkipsRetry(t *testing.T) {
	marker := &recordingMarker{}
	job := NewOverdueScanJob(marker, slog.New(slog.DiscardHandler))

	err := job.Handle(context.Background(), asynq.NewTask(TaskInvoiceOverdueScan, []byte("{not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	task, err := NewOverdueScanTask(OverdueScanPayload{AsOf: "15/01/2026"})
	require.NoError(t, err)
	err = job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
