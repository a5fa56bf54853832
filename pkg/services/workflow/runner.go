package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
	"github.com/de-tools/realty-atlas/pkg/services/aggregation"
	"github.com/de-tools/realty-atlas/pkg/services/explorer"
	"github.com/rs/zerolog"
)

// Runner executes one job and keeps its state readable while it runs.
type Runner struct {
	explorer explorer.Explorer
	query    explorer.Query
	done     chan struct{}

	mu     sync.RWMutex
	job    domain.Job
	result *domain.Table
}

func NewRunner(id string, exp explorer.Explorer, q explorer.Query) *Runner {
	return &Runner{
		explorer: exp,
		query:    q,
		done:     make(chan struct{}),
		job: domain.Job{
			ID:        id,
			Region:    q.Region,
			From:      q.From,
			To:        q.To,
			Status:    domain.JobRunning,
			StartedAt: time.Now(),
		},
	}
}

func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Snapshot returns a copy of the job state.
func (r *Runner) Snapshot() domain.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.job
}

// Result is nil until the job has succeeded.
func (r *Runner) Result() *domain.Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.result
}

func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)

	logger := zerolog.Ctx(ctx).With().Str("job_id", r.job.ID).Logger()
	ctx = logger.WithContext(ctx)
	logger.Info().Str("region", r.query.Region).Msg("job started")

	table, err := r.explorer.GetTransactions(ctx, r.query, r.progress)

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.job.EndedAt = &now
	switch {
	case err == nil:
		r.job.Status = domain.JobSucceeded
		r.job.Rows = table.Len()
		r.result = table
		logger.Info().Int("rows", table.Len()).Msg("job finished")
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		r.job.Status = domain.JobCancelled
		r.job.Err = err
		logger.Info().Msg("job cancelled")
	default:
		r.job.Status = domain.JobFailed
		r.job.Err = err
		logger.Error().Err(err).Msg("job failed")
	}
}

func (r *Runner) progress(p aggregation.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.job.Completed = p.Completed
	r.job.Total = p.Total
	r.job.Current = p.SubRegion
}
