package repository

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopops/pickticket/constants"
	"github.com/shopops/pickticket/internal/batch"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStore(t *testing.T) ReportStore {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, ":memory:", testLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	store, err := NewReportStore(ctx, db, testLogger())
	require.NoError(t, err)
	return store
}

func sampleReport(batchID uuid.UUID) batch.Report {
	completed := time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC)
	return batch.Report{
		BatchID:    batchID,
		StartedAt:  completed.Add(-2 * time.Minute),
		FinishedAt: completed,
		Results: []batch.Result{
			{OrderID: "gid://shop/Order/1", OrderName: "#1001", Outcome: constants.OutcomeTagged, CompletedAt: completed},
			{OrderID: "gid://shop/Order/2", OrderName: "#1002", Outcome: constants.OutcomeFailed, Stage: constants.StagePrint, Reason: "spooler rejected document", CompletedAt: completed},
		},
	}
}

func TestSaveAndListReport(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	batchID := uuid.New()

	require.NoError(t, store.SaveReport(ctx, sampleReport(batchID)))

	rows, err := store.ListByBatch(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "#1001", rows[0].OrderName)
	assert.Equal(t, constants.OutcomeTagged, rows[0].Outcome)
	assert.Equal(t, "#1002", rows[1].OrderName)
	assert.Equal(t, constants.OutcomeFailed, rows[1].Outcome)
	assert.Equal(t, constants.StagePrint, rows[1].Stage)
	assert.Equal(t, "spooler rejected document", rows[1].Reason)
	assert.Equal(t, time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC), rows[0].CompletedAt.UTC())
}

func TestSaveReportIsIdempotent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	batchID := uuid.New()
	report := sampleReport(batchID)

	require.NoError(t, store.SaveReport(ctx, report))

	// A crash-and-retry save overwrites rather than duplicates.
	report.Results[1].Outcome = constants.OutcomeTagged
	report.Results[1].Stage = ""
	report.Results[1].Reason = ""
	require.NoError(t, store.SaveReport(ctx, report))

	rows, err := store.ListByBatch(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, constants.OutcomeTagged, rows[1].Outcome)
	assert.Empty(t, rows[1].Reason)
}

func TestListByBatchIsolatesBatches(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first, second := uuid.New(), uuid.New()
	require.NoError(t, store.SaveReport(ctx, sampleReport(first)))
	require.NoError(t, store.SaveReport(ctx, sampleReport(second)))

	rows, err := store.ListByBatch(ctx, first)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	none, err := store.ListByBatch(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}
