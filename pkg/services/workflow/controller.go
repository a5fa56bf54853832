package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
	"github.com/de-tools/realty-atlas/pkg/services/explorer"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrJobRunning        = errors.New("job is still running")
	ErrJobNotRunning     = errors.New("job is not running")
	ErrResultUnavailable = errors.New("job result is no longer available")
)

type Controller interface {
	Start(ctx context.Context, q explorer.Query) (domain.Job, error)
	Get(ctx context.Context, id string) (domain.Job, error)
	Result(ctx context.Context, id string) (*domain.Table, error)
	List(ctx context.Context) ([]domain.Job, error)
	Cancel(ctx context.Context, id string) error
}

// JobStore persists job snapshots. Results are never persisted.
type JobStore interface {
	SaveJob(ctx context.Context, job domain.Job) error
	GetJob(ctx context.Context, id string) (domain.Job, error)
	ListJobs(ctx context.Context, statuses ...domain.JobStatus) ([]domain.Job, error)
}

type jobDescriptor struct {
	cancelFunc context.CancelFunc
	runner     *Runner
}

type DefaultController struct {
	explorer explorer.Explorer
	store    JobStore

	mu   sync.Mutex
	jobs map[string]jobDescriptor
}

type Option func(*DefaultController)

func WithStore(store JobStore) Option {
	return func(ctrl *DefaultController) {
		ctrl.store = store
	}
}

func NewController(exp explorer.Explorer, opts ...Option) *DefaultController {
	ctrl := &DefaultController{
		explorer: exp,
		jobs:     make(map[string]jobDescriptor),
	}
	for _, opt := range opts {
		opt(ctrl)
	}
	return ctrl
}

// Init marks jobs a previous process left running as failed.
func (ctrl *DefaultController) Init(ctx context.Context) error {
	if ctrl.store == nil {
		return nil
	}

	stale, err := ctrl.store.ListJobs(ctx, domain.JobRunning)
	if err != nil {
		return fmt.Errorf("failed to list unfinished jobs: %w", err)
	}
	now := time.Now()
	for _, job := range stale {
		job.Status = domain.JobFailed
		job.EndedAt = &now
		job.Err = &domain.JobError{ErrKind: "interrupted", Message: "server stopped before the job finished"}
		if err := ctrl.store.SaveJob(ctx, job); err != nil {
			return err
		}
	}
	if len(stale) > 0 {
		zerolog.Ctx(ctx).Warn().Int("jobs", len(stale)).Msg("marked interrupted jobs as failed")
	}
	return nil
}

// Start validates the query, then runs it in the background. The job outlives
// ctx's cancellation but keeps its values, including the logger.
func (ctrl *DefaultController) Start(ctx context.Context, q explorer.Query) (domain.Job, error) {
	if _, _, err := domain.ParseRange(q.From, q.To); err != nil {
		return domain.Job{}, err
	}
	if !domain.IsNationwide(q.Region) {
		if _, err := ctrl.explorer.GetRegion(ctx, q.Region); err != nil {
			return domain.Job{}, err
		}
	}

	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	runCtx, cancel := context.WithCancel(detached)
	runner := NewRunner(uuid.NewString(), ctrl.explorer, q)
	job := runner.Snapshot()
	ctrl.jobs[job.ID] = jobDescriptor{cancelFunc: cancel, runner: runner}
	ctrl.persist(detached, job)

	go func() {
		defer cancel()
		runner.Run(runCtx)
		ctrl.persist(detached, runner.Snapshot())
	}()

	return job, nil
}

// Get falls back to the job store for jobs started by an earlier process.
func (ctrl *DefaultController) Get(ctx context.Context, id string) (domain.Job, error) {
	desc, err := ctrl.lookup(id)
	if err == nil {
		return desc.runner.Snapshot(), nil
	}
	return ctrl.stored(ctx, id, err)
}

func (ctrl *DefaultController) Result(ctx context.Context, id string) (*domain.Table, error) {
	var (
		job    domain.Job
		result func() *domain.Table
	)
	desc, err := ctrl.lookup(id)
	if err == nil {
		job = desc.runner.Snapshot()
		result = desc.runner.Result
	} else if job, err = ctrl.stored(ctx, id, err); err != nil {
		return nil, err
	}

	switch job.Status {
	case domain.JobSucceeded:
		if result == nil {
			return nil, fmt.Errorf("%w: %s", ErrResultUnavailable, id)
		}
		return result(), nil
	case domain.JobRunning:
		return nil, fmt.Errorf("%w: %s", ErrJobRunning, id)
	default:
		return nil, job.Err
	}
}

// List returns every known job, oldest first.
func (ctrl *DefaultController) List(ctx context.Context) ([]domain.Job, error) {
	ctrl.mu.Lock()
	jobs := make([]domain.Job, 0, len(ctrl.jobs))
	for _, desc := range ctrl.jobs {
		jobs = append(jobs, desc.runner.Snapshot())
	}
	ctrl.mu.Unlock()

	if ctrl.store != nil {
		history, err := ctrl.store.ListJobs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list stored jobs: %w", err)
		}
		for _, job := range history {
			if _, err := ctrl.lookup(job.ID); err != nil {
				jobs = append(jobs, job)
			}
		}
	}

	slices.SortFunc(jobs, func(a, b domain.Job) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
	return jobs, nil
}

// Cancel stops a running job and waits for it to wind down.
func (ctrl *DefaultController) Cancel(ctx context.Context, id string) error {
	desc, err := ctrl.lookup(id)
	if err != nil {
		if _, err := ctrl.stored(ctx, id, err); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", ErrJobNotRunning, id)
	}
	if desc.runner.Snapshot().Done() {
		return fmt.Errorf("%w: %s", ErrJobNotRunning, id)
	}

	desc.cancelFunc()
	<-desc.runner.Done()
	return nil
}

func (ctrl *DefaultController) lookup(id string) (jobDescriptor, error) {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	desc, ok := ctrl.jobs[id]
	if !ok {
		return jobDescriptor{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return desc, nil
}

// stored looks id up in the job store, returning notFound when there is none.
func (ctrl *DefaultController) stored(ctx context.Context, id string, notFound error) (domain.Job, error) {
	if ctrl.store == nil {
		return domain.Job{}, notFound
	}
	job, err := ctrl.store.GetJob(ctx, id)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("job_id", id).Msg("job not in store")
		return domain.Job{}, notFound
	}
	return job, nil
}

func (ctrl *DefaultController) persist(ctx context.Context, job domain.Job) {
	if ctrl.store == nil {
		return
	}
	if err := ctrl.store.SaveJob(ctx, job); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("job_id", job.ID).Msg("failed to save job")
	}
}
