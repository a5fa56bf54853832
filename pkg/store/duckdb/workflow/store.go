package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
	"github.com/de-tools/realty-atlas/pkg/store/duckdb"
)

var ErrNotFound = errors.New("job not found in store")

const schema = `
	CREATE TABLE IF NOT EXISTS jobs (
		id          VARCHAR PRIMARY KEY,
		region      VARCHAR NOT NULL,
		period_from VARCHAR NOT NULL,
		period_to   VARCHAR NOT NULL,
		status      VARCHAR NOT NULL,
		completed   INTEGER NOT NULL,
		total       INTEGER NOT NULL,
		row_count   INTEGER NOT NULL,
		error_kind  VARCHAR,
		error_msg   VARCHAR,
		started_at  TIMESTAMP NOT NULL,
		ended_at    TIMESTAMP
	)`

const selectJobs = `
	SELECT id, region, period_from, period_to, status, completed, total, row_count,
	       error_kind, error_msg, started_at, ended_at
	FROM jobs`

// Store keeps job history so it survives restarts when the database is a file.
type Store interface {
	SaveJob(ctx context.Context, job domain.Job) error
	GetJob(ctx context.Context, id string) (domain.Job, error)
	ListJobs(ctx context.Context, statuses ...domain.JobStatus) ([]domain.Job, error)
}

type defaultStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create jobs table: %w", err)
	}
	return &defaultStore{
		db: db,
	}, nil
}

// SaveJob inserts the job or replaces its previous snapshot.
func (s *defaultStore) SaveJob(ctx context.Context, job domain.Job) error {
	query := `
		INSERT OR REPLACE INTO jobs (
			id, region, period_from, period_to, status, completed, total, row_count,
			error_kind, error_msg, started_at, ended_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var errKind, errMsg sql.NullString
	if job.Err != nil {
		kind := domain.KindOf(job.Err)
		if kind == "" {
			kind = "internal"
		}
		errKind = sql.NullString{String: kind, Valid: true}
		errMsg = sql.NullString{String: job.Err.Error(), Valid: true}
	}
	var endedAt sql.NullTime
	if job.EndedAt != nil {
		endedAt = sql.NullTime{Time: job.EndedAt.UTC(), Valid: true}
	}

	args := []interface{}{
		job.ID, job.Region, job.From, job.To, string(job.Status), job.Completed, job.Total, job.Rows,
		errKind, errMsg, job.StartedAt.UTC(), endedAt,
	}

	var err error
	if tx := duckdb.GetTransaction(ctx); tx != nil {
		_, err = tx.ExecContext(ctx, query, args...)
	} else {
		_, err = s.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

func (s *defaultStore) GetJob(ctx context.Context, id string) (domain.Job, error) {
	rows, err := s.db.QueryContext(ctx, selectJobs+" WHERE id = ?", id)
	if err != nil {
		return domain.Job{}, fmt.Errorf("query job: %w", err)
	}
	defer rows.Close()

	jobs, err := scanJobs(rows)
	if err != nil {
		return domain.Job{}, err
	}
	if len(jobs) == 0 {
		return domain.Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return jobs[0], nil
}

// ListJobs returns jobs oldest first, optionally filtered by status.
func (s *defaultStore) ListJobs(ctx context.Context, statuses ...domain.JobStatus) ([]domain.Job, error) {
	query := selectJobs
	args := make([]interface{}, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, st := range statuses {
			placeholders[i] = "?"
			args[i] = string(st)
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY started_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

func scanJobs(rows *sql.Rows) ([]domain.Job, error) {
	jobs := []domain.Job{}
	for rows.Next() {
		var (
			job       domain.Job
			status    string
			errKind   sql.NullString
			errMsg    sql.NullString
			startedAt time.Time
			endedAt   sql.NullTime
		)
		if err := rows.Scan(
			&job.ID, &job.Region, &job.From, &job.To, &status, &job.Completed, &job.Total, &job.Rows,
			&errKind, &errMsg, &startedAt, &endedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}

		job.Status = domain.JobStatus(status)
		job.StartedAt = startedAt
		if endedAt.Valid {
			t := endedAt.Time
			job.EndedAt = &t
		}
		if errMsg.Valid {
			job.Err = &domain.JobError{ErrKind: errKind.String, Message: errMsg.String}
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}
