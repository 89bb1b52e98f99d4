// Package journal records batch conversion runs and their per-record
// failures in the SQLite database.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrRunNotFound = errors.New("run not found")

// Run is one batch conversion as stored in the journal.
type Run struct {
	Started   time.Time
	Finished  time.Time
	Input     string
	Output    string
	Format    string
	ID        int64
	Total     int
	Converted int
	Failed    int
}

// Failure is a record that was skipped during a run.
type Failure struct {
	Class   string
	Message string
	RunID   int64
	Index   int
}

type Journal struct {
	db *sql.DB
}

func New(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// StartRun inserts an unfinished run and returns its id.
func (j *Journal) StartRun(ctx context.Context, input, output, format string, started time.Time) (int64, error) {
	result, err := j.db.ExecContext(ctx,
		"INSERT INTO runs (input, output, format, started_at) VALUES (?, ?, ?, ?)",
		input, output, format, started.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}
	return id, nil
}

func (j *Journal) RecordFailure(ctx context.Context, runID int64, index int, class, message string) error {
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO failures (run_id, record_index, error_class, message) VALUES (?, ?, ?, ?)",
		runID, index, class, message)
	if err != nil {
		return fmt.Errorf("failed to record failure for record %d: %w", index, err)
	}
	return nil
}

func (j *Journal) FinishRun(ctx context.Context, runID int64, total, converted, failed int, finished time.Time) error {
	result, err := j.db.ExecContext(ctx,
		"UPDATE runs SET finished_at = ?, total = ?, converted = ?, failed = ? WHERE id = ?",
		finished.Unix(), total, converted, failed, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", runID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", runID, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, runID)
	}
	return nil
}

// Runs returns up to limit runs, most recent first. A limit of zero or
// less returns every run.
func (j *Journal) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, input, output, format, started_at, finished_at, total, converted, failed
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			started  int64
			finished sql.NullInt64
		)
		err := rows.Scan(&run.ID, &run.Input, &run.Output, &run.Format,
			&started, &finished, &run.Total, &run.Converted, &run.Failed)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Started = time.Unix(started, 0)
		if finished.Valid {
			run.Finished = time.Unix(finished.Int64, 0)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

// Failures returns the failures of a run in record order.
func (j *Journal) Failures(ctx context.Context, runID int64) ([]Failure, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, record_index, error_class, message
		FROM failures WHERE run_id = ? ORDER BY record_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var failures []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.RunID, &f.Index, &f.Class, &f.Message); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read failures: %w", err)
	}
	return failures, nil
}
