// Package explorer answers region, transaction, summary and report queries by
// running the aggregation pipeline and projecting its output.
package explorer

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
	"github.com/de-tools/realty-atlas/pkg/services/aggregation"
	"github.com/de-tools/realty-atlas/pkg/services/fetcher"
	"github.com/de-tools/realty-atlas/pkg/services/projection"
	"github.com/de-tools/realty-atlas/pkg/services/report"
	"github.com/de-tools/realty-atlas/pkg/services/summary"
)

// Query selects a region and an inclusive YYYYMM range.
type Query struct {
	Region string
	From   string
	To     string
}

type Explorer interface {
	ListRegions(ctx context.Context) ([]domain.Region, error)
	GetRegion(ctx context.Context, name string) (domain.Region, error)
	GetTransactions(ctx context.Context, q Query, progress func(aggregation.Progress)) (*domain.Table, error)
	GetSummary(ctx context.Context, q Query, dims []string) (*domain.CountTable, error)
	GetReport(ctx context.Context, q Query) (*domain.Report, *domain.Table, error)
	// Summarize and BuildReport work on a table already fetched with GetTransactions.
	Summarize(ctx context.Context, t *domain.Table, dims []string) (*domain.CountTable, error)
	BuildReport(ctx context.Context, q Query, t *domain.Table) (*domain.Report, error)
}

// Directory is the part of the region directory the explorer reads.
type Directory interface {
	Resolve(name string) ([]domain.Target, error)
	Regions() []domain.Region
	Region(name string) (domain.Region, bool)
}

type Options struct {
	FieldMap     domain.FieldMap
	Concurrency  int
	Counter      report.Counter
	ReportConfig *report.Config
}

type regionExplorer struct {
	dir         Directory
	fetcher     fetcher.Fetcher
	projector   *projection.Projector
	concurrency int
	counter     report.Counter
	reportCfg   report.Config
}

// NewExplorer validates the field map against the fetcher schema up front.
func NewExplorer(dir Directory, f fetcher.Fetcher, opts Options) (Explorer, error) {
	fm := opts.FieldMap
	if fm == nil {
		fm = projection.DefaultFieldMap()
	}
	schema := domain.NewUnifiedTable(f.Schema(), nil).Schema()
	projector, err := projection.New(fm, schema)
	if err != nil {
		return nil, fmt.Errorf("field map does not match fetcher schema: %w", err)
	}

	reportCfg := report.DefaultConfig()
	if opts.ReportConfig != nil {
		reportCfg = *opts.ReportConfig
	}

	return &regionExplorer{
		dir:         dir,
		fetcher:     f,
		projector:   projector,
		concurrency: max(opts.Concurrency, 1),
		counter:     opts.Counter,
		reportCfg:   reportCfg,
	}, nil
}

func (e *regionExplorer) ListRegions(_ context.Context) ([]domain.Region, error) {
	return e.dir.Regions(), nil
}

func (e *regionExplorer) GetRegion(_ context.Context, name string) (domain.Region, error) {
	reg, ok := e.dir.Region(name)
	if !ok {
		return domain.Region{}, &domain.UnknownRegionError{Name: name}
	}
	return reg, nil
}

func (e *regionExplorer) GetTransactions(
	ctx context.Context,
	q Query,
	progress func(aggregation.Progress),
) (*domain.Table, error) {
	opts := []aggregation.Option{aggregation.WithConcurrency(e.concurrency)}
	if progress != nil {
		opts = append(opts, aggregation.WithProgress(progress))
	}

	unified, err := aggregation.NewPipeline(e.dir, e.fetcher, opts...).Aggregate(ctx, q.Region, q.From, q.To)
	if err != nil {
		return nil, err
	}
	return e.projector.Project(unified)
}

// GetSummary accepts projected columns and the derived period and band columns.
func (e *regionExplorer) GetSummary(ctx context.Context, q Query, dims []string) (*domain.CountTable, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("at least one dimension is required")
	}

	table, err := e.GetTransactions(ctx, q, nil)
	if err != nil {
		return nil, err
	}
	return e.Summarize(ctx, table, dims)
}

func (e *regionExplorer) Summarize(ctx context.Context, t *domain.Table, dims []string) (*domain.CountTable, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("at least one dimension is required")
	}

	table, err := e.derive(t, dims)
	if err != nil {
		return nil, err
	}

	if e.counter != nil {
		return e.counter.CountBy(ctx, table, dims...)
	}
	return summary.SummarizeBy(table, dims...)
}

func (e *regionExplorer) GetReport(ctx context.Context, q Query) (*domain.Report, *domain.Table, error) {
	if _, _, err := domain.ParseRange(q.From, q.To); err != nil {
		return nil, nil, err
	}

	table, err := e.GetTransactions(ctx, q, nil)
	if err != nil {
		return nil, nil, err
	}

	rep, err := e.BuildReport(ctx, q, table)
	if err != nil {
		return nil, nil, err
	}
	return rep, table, nil
}

func (e *regionExplorer) BuildReport(ctx context.Context, q Query, t *domain.Table) (*domain.Report, error) {
	from, to, err := domain.ParseRange(q.From, q.To)
	if err != nil {
		return nil, err
	}

	var opts []report.Option
	if e.counter != nil {
		opts = append(opts, report.WithCounter(e.counter))
	}
	return report.NewBuilder(e.reportCfg, opts...).Build(ctx, report.Meta{
		Region:      q.Region,
		Start:       from,
		End:         to,
		GeneratedAt: time.Now(),
	}, t)
}

func (e *regionExplorer) derive(t *domain.Table, dims []string) (*domain.Table, error) {
	var err error
	if slices.Contains(dims, summary.PeriodColumn) && t.ColumnIndex(summary.PeriodColumn) < 0 {
		if t, _, err = summary.DerivePeriod(t, e.reportCfg.YearColumn, e.reportCfg.MonthColumn, summary.PeriodColumn); err != nil {
			return nil, err
		}
	}
	if slices.Contains(dims, summary.AreaBandColumn) && t.ColumnIndex(summary.AreaBandColumn) < 0 {
		if t, _, err = summary.Bucketize(t, e.reportCfg.AreaColumn, e.reportCfg.AreaBuckets, summary.AreaBandColumn); err != nil {
			return nil, err
		}
	}
	if slices.Contains(dims, summary.PriceBandColumn) && t.ColumnIndex(summary.PriceBandColumn) < 0 {
		if t, _, err = summary.Bucketize(t, e.reportCfg.PriceColumn, e.reportCfg.PriceBuckets, summary.PriceBandColumn); err != nil {
			return nil, err
		}
	}
	return t, nil
}
