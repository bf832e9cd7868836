package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/instafilter/internal/entity"
)

type JobPostgres struct {
	db *sql.DB
}

func NewJobPostgres(db *sql.DB) *JobPostgres {
	return &JobPostgres{db: db}
}

func (r *JobPostgres) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres health check failed: %w", err)
	}
	return nil
}

func (r *JobPostgres) Save(ctx context.Context, job *entity.Job) error {
	query := `
		INSERT INTO jobs (id, filter, file_name, status, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.Filter,
		job.FileName,
		job.Status,
		job.Error,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// FindByID retrieves a job by its ID
func (r *JobPostgres) FindByID(ctx context.Context, id string) (*entity.Job, error) {
	query := `
		SELECT id, filter, file_name, status, error, created_at, updated_at
		FROM jobs
		WHERE id = $1
	`

	job, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func (r *JobPostgres) Update(ctx context.Context, job *entity.Job) error {
	query := `
		UPDATE jobs
		SET status = $2, error = $3, updated_at = $4
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, job.ID, job.Status, job.Error, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return expectRow(res)
}

func (r *JobPostgres) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return expectRow(res)
}

func (r *JobPostgres) ListExpired(ctx context.Context, before time.Time) ([]entity.Job, error) {
	query := `
		SELECT id, filter, file_name, status, error, created_at, updated_at
		FROM jobs
		WHERE created_at < $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired jobs: %w", err)
	}
	defer rows.Close()

	var jobs []entity.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (*entity.Job, error) {
	var job entity.Job
	err := s.Scan(
		&job.ID,
		&job.Filter,
		&job.FileName,
		&job.Status,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entity.ErrJobNotFound
	}
	return nil
}
