package run

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type Repository interface {
	Save(ctx context.Context, r *Run) error
	List(ctx context.Context, limit int) ([]Run, error)
	Get(ctx context.Context, id string) (*Run, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const columns = `id, run_id, stage, success, total_items, processed_items, failed_items, errors, metadata, started_at, elapsed_ms, created_at`

func (r *PostgresRepo) Save(ctx context.Context, run *Run) error {
	query := `INSERT INTO pipeline_runs (run_id, stage, success, total_items, processed_items, failed_items, errors, metadata, started_at, elapsed_ms) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id, created_at`
	meta := []byte(run.Metadata)
	if len(meta) == 0 {
		meta = []byte("{}")
	}
	return r.db.QueryRowContext(ctx, query,
		run.RunID, run.Stage, run.Success, run.TotalItems, run.ProcessedItems, run.FailedItems,
		pq.Array(run.Errors), meta, run.StartedAt, run.Elapsed.Milliseconds(),
	).Scan(&run.ID, &run.CreatedAt)
}

// List returns the most recent runs first. A non-positive limit returns all rows.
func (r *PostgresRepo) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + columns + ` FROM pipeline_runs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scan(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Run, error) {
	query := `SELECT ` + columns + ` FROM pipeline_runs WHERE id = $1`
	return scan(r.db.QueryRowContext(ctx, query, id))
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*Run, error) {
	var (
		run       Run
		meta      []byte
		elapsedMS int64
	)
	err := s.Scan(&run.ID, &run.RunID, &run.Stage, &run.Success, &run.TotalItems, &run.ProcessedItems,
		&run.FailedItems, pq.Array(&run.Errors), &meta, &run.StartedAt, &elapsedMS, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	run.Metadata = meta
	run.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	return &run, nil
}
