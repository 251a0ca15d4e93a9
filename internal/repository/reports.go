package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shopops/pickticket/constants"
	"github.com/shopops/pickticket/internal/batch"
)

// ReportStore persists one flat audit row per order per completed batch.
type ReportStore interface {
	SaveReport(ctx context.Context, report batch.Report) error
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]batch.Result, error)
}

const reportSchema = `
CREATE TABLE IF NOT EXISTS batch_report (
	batch_id   TEXT NOT NULL,
	order_id   TEXT NOT NULL,
	order_name TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	stage      TEXT NOT NULL DEFAULT '',
	reason     TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	PRIMARY KEY (batch_id, order_id)
)`

type sqliteReportStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewReportStore creates the audit table if missing and returns the store.
func NewReportStore(ctx context.Context, db *sql.DB, logger *slog.Logger) (ReportStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := db.ExecContext(ctx, reportSchema); err != nil {
		return nil, fmt.Errorf("create batch_report table: %w", err)
	}
	return &sqliteReportStore{db: db, logger: logger}, nil
}

// SaveReport writes every result row of a completed batch in one
// transaction. Re-saving the same batch overwrites its rows, so a
// retried save after a crash cannot duplicate audit records.
func (s *sqliteReportStore) SaveReport(ctx context.Context, report batch.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO batch_report
			(batch_id, order_id, order_name, outcome, stage, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, res := range report.Results {
		if _, err := stmt.ExecContext(ctx,
			report.BatchID.String(),
			res.OrderID,
			res.OrderName,
			string(res.Outcome),
			string(res.Stage),
			res.Reason,
			res.CompletedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("insert report row for %s: %w", res.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit report: %w", err)
	}
	s.logger.Info("repository.report.saved",
		"batch_id", report.BatchID.String(),
		"rows", len(report.Results),
	)
	return nil
}

func (s *sqliteReportStore) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]batch.Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, order_name, outcome, stage, reason, created_at
		FROM batch_report
		WHERE batch_id = ?
		ORDER BY order_name, order_id`, batchID.String())
	if err != nil {
		return nil, fmt.Errorf("query batch %s: %w", batchID, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []batch.Result
	for rows.Next() {
		var res batch.Result
		var outcome, stage, createdAt string
		if err := rows.Scan(&res.OrderID, &res.OrderName, &outcome, &stage, &res.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		res.Outcome = constants.JobOutcome(outcome)
		res.Stage = constants.Stage(stage)
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			res.CompletedAt = ts
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}
	return out, nil
}
