package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jengzang/anchor-locator-go/internal/database"
	"github.com/jengzang/anchor-locator-go/internal/models"
)

// RunRepository records batch recompute passes
type RunRepository struct {
	db database.DBTX
}

// NewRunRepository creates a new run repository
func NewRunRepository(db database.DBTX) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `id, source, only_unpositioned, status, total, updated, skipped, failed,
	error_message, started_at, completed_at, created_at`

func scanRun(row rowScanner) (*models.RecomputeRun, error) {
	var (
		run                models.RecomputeRun
		only               int
		msg                sql.NullString
		started, completed sql.NullInt64
	)
	err := row.Scan(&run.ID, &run.Source, &only, &run.Status, &run.Total, &run.Updated, &run.Skipped, &run.Failed,
		&msg, &started, &completed, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	run.OnlyUnpositioned = only != 0
	run.ErrorMessage = msg.String
	run.StartedAt = int64Ptr(started)
	run.CompletedAt = int64Ptr(completed)
	return &run, nil
}

// Create inserts a pending run and returns its ID
func (r *RunRepository) Create(ctx context.Context, source string, onlyUnpositioned bool) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO recompute_runs (source, only_unpositioned, status, created_at)
		VALUES (?, ?, ?, ?)`, source, boolInt(onlyUnpositioned), models.RunStatusPending, now())
	if err != nil {
		return 0, fmt.Errorf("failed to create recompute run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get recompute run id: %w", err)
	}
	return id, nil
}

// MarkRunning marks a run as running
func (r *RunRepository) MarkRunning(ctx context.Context, id int64, total int) error {
	_, err := r.db.ExecContext(ctx, "UPDATE recompute_runs SET status = ?, total = ?, started_at = ? WHERE id = ?",
		models.RunStatusRunning, total, now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark run as running: %w", err)
	}
	return nil
}

// MarkCompleted stores the final counters of a run
func (r *RunRepository) MarkCompleted(ctx context.Context, id int64, updated, skipped, failed int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE recompute_runs
		SET status = ?, updated = ?, skipped = ?, failed = ?, completed_at = ? WHERE id = ?`,
		models.RunStatusCompleted, updated, skipped, failed, now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark run as completed: %w", err)
	}
	return nil
}

// MarkFailed marks a run as failed
func (r *RunRepository) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE recompute_runs SET status = ?, error_message = ?, completed_at = ? WHERE id = ?",
		models.RunStatusFailed, errMsg, now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark run as failed: %w", err)
	}
	return nil
}

// GetByID retrieves a run; it returns nil when none exists
func (r *RunRepository) GetByID(ctx context.Context, id int64) (*models.RecomputeRun, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM recompute_runs WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recompute run: %w", err)
	}
	return run, nil
}

// List retrieves the most recent runs
func (r *RunRepository) List(ctx context.Context, limit int) ([]models.RecomputeRun, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, "SELECT "+runColumns+" FROM recompute_runs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recompute runs: %w", err)
	}
	defer rows.Close()

	runs := []models.RecomputeRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recompute run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}
