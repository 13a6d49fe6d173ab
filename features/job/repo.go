package job

import (
	"context"
	"database/sql"
)

type Repository interface {
	Save(ctx context.Context, job *Job) error
	List(ctx context.Context) ([]Job, error)
	Get(ctx context.Context, id string) (*Job, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	IncrementRetries(ctx context.Context, id, lastError string) error
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// Save records a failed item. An item that is already recorded for the stage
// keeps its row, id and retry count and takes the newer run and error.
func (r *PostgresRepo) Save(ctx context.Context, job *Job) error {
	query := `INSERT INTO failed_items (run_id, stage, source_id, error) VALUES ($1, $2, $3, $4)
ON CONFLICT (stage, source_id) DO UPDATE SET run_id = EXCLUDED.run_id, error = EXCLUDED.error
RETURNING id, created_at, retries`
	return r.db.QueryRowContext(ctx, query, job.RunID, job.Stage, job.SourceID, job.Error).Scan(&job.ID, &job.CreatedAt, &job.Retries)
}

func (r *PostgresRepo) List(ctx context.Context) ([]Job, error) {
	query := `SELECT id, run_id, stage, source_id, error, retries, created_at FROM failed_items ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.RunID, &j.Stage, &j.SourceID, &j.Error, &j.Retries, &j.CreatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Job, error) {
	j := &Job{}
	query := `SELECT id, run_id, stage, source_id, error, retries, created_at FROM failed_items WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&j.ID, &j.RunID, &j.Stage, &j.SourceID, &j.Error, &j.Retries, &j.CreatedAt)
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM failed_items WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM failed_items`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

func (r *PostgresRepo) IncrementRetries(ctx context.Context, id, lastError string) error {
	query := `UPDATE failed_items SET retries = retries + 1, error = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, lastError)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
