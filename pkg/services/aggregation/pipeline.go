// Package aggregation fans a region query out to one fetch per sub-region and
// concatenates the results into a single table.
package aggregation

import (
	"context"
	"sync"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
	"github.com/de-tools/realty-atlas/pkg/services/fetcher"
	"github.com/de-tools/realty-atlas/pkg/services/region"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Progress is reported once per completed sub-region.
type Progress struct {
	Completed int
	Total     int
	SubRegion string
}

type Option func(*Pipeline)

// WithProgress registers a callback; calls are serialized.
func WithProgress(fn func(Progress)) Option {
	return func(p *Pipeline) {
		p.progress = fn
	}
}

// WithConcurrency bounds the number of fetches in flight. Values below 2 keep
// fetching sequential.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n < 1 {
			n = 1
		}
		p.concurrency = n
	}
}

type Pipeline struct {
	dir         region.Resolver
	fetcher     fetcher.Fetcher
	progress    func(Progress)
	concurrency int
}

func NewPipeline(dir region.Resolver, f fetcher.Fetcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		dir:         dir,
		fetcher:     f,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Aggregate fetches every sub-region of regionName for the months start..end
// (YYYYMM, inclusive) and returns their rows tagged and concatenated in
// directory order. The first failed fetch aborts the run.
func (p *Pipeline) Aggregate(ctx context.Context, regionName, start, end string) (*domain.UnifiedTable, error) {
	from, to, err := domain.ParseRange(start, end)
	if err != nil {
		return nil, err
	}

	targets, err := p.dir.Resolve(regionName)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().
		Str("run_id", uuid.NewString()).
		Str("region", regionName).
		Str("from", from.String()).
		Str("to", to.String()).
		Logger()
	ctx = logger.WithContext(ctx)
	logger.Info().Int("sub_regions", len(targets)).Msg("aggregation started")

	var results [][]domain.Record
	if p.concurrency > 1 && len(targets) > 1 {
		results, err = p.fetchConcurrent(ctx, targets, from, to)
	} else {
		results, err = p.fetchSequential(ctx, targets, from, to)
	}
	if err != nil {
		logger.Error().Err(err).Msg("aggregation failed")
		return nil, err
	}

	size := 0
	for _, records := range results {
		size += len(records)
	}
	rows := make([]domain.Row, 0, size)
	for i, records := range results {
		for _, rec := range records {
			rows = append(rows, domain.Row{
				RegionName:    targets[i].RegionName,
				SubRegionName: targets[i].SubRegion.Name,
				Record:        rec,
			})
		}
	}

	logger.Info().Int("rows", len(rows)).Msg("aggregation finished")
	return domain.NewUnifiedTable(p.fetcher.Schema(), rows), nil
}

func (p *Pipeline) fetchSequential(ctx context.Context, targets []domain.Target, from, to domain.Period) ([][]domain.Record, error) {
	results := make([][]domain.Record, len(targets))
	for i, target := range targets {
		records, err := p.fetchOne(ctx, target, from, to)
		if err != nil {
			return nil, err
		}
		results[i] = records
		p.report(i+1, len(targets), target)
	}
	return results, nil
}

// fetchConcurrent writes each result into the slot of its target so the caller
// can concatenate in directory order regardless of completion order.
func (p *Pipeline) fetchConcurrent(ctx context.Context, targets []domain.Target, from, to domain.Period) ([][]domain.Record, error) {
	results := make([][]domain.Record, len(targets))

	var (
		mu        sync.Mutex
		completed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, target := range targets {
		g.Go(func() error {
			records, err := p.fetchOne(gctx, target, from, to)
			if err != nil {
				return err
			}
			results[i] = records

			mu.Lock()
			completed++
			p.report(completed, len(targets), target)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) fetchOne(ctx context.Context, target domain.Target, from, to domain.Period) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fetchError(target, err)
	}

	records, err := p.fetcher.Fetch(ctx, target.SubRegion.Code, from, to)
	if err != nil {
		return nil, fetchError(target, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("sub_region", target.SubRegion.Name).
		Int("records", len(records)).
		Msg("sub-region fetched")
	return records, nil
}

func fetchError(target domain.Target, err error) error {
	return &domain.FetchError{
		SubRegionCode: target.SubRegion.Code,
		SubRegionName: target.SubRegion.Name,
		Err:           err,
	}
}

func (p *Pipeline) report(completed, total int, target domain.Target) {
	if p.progress == nil {
		return
	}
	p.progress(Progress{Completed: completed, Total: total, SubRegion: target.SubRegion.Name})
}
