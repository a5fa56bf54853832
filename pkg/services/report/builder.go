// Package report composes the standard transaction analysis sections.
package report

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
	"github.com/de-tools/realty-atlas/pkg/services/projection"
	"github.com/de-tools/realty-atlas/pkg/services/summary"
	"github.com/rs/zerolog"
)

const (
	Currency = "만원"

	SectionOverview    = "개요"
	SectionMonthly     = "월별 거래량"
	SectionSubRegion   = "시군구별 거래량"
	SectionDealingType = "거래유형별 거래량"
	SectionArea        = "면적대별 거래량"
	SectionPrice       = "가격대별 거래량"

	countUnit = "건"
)

// Meta describes the query a report was built for.
type Meta struct {
	Region      string
	Start       domain.Period
	End         domain.Period
	GeneratedAt time.Time
}

// Config names the projected columns each section reads.
type Config struct {
	YearColumn        string
	MonthColumn       string
	SubRegionColumn   string
	DealingTypeColumn string
	AreaColumn        string
	PriceColumn       string
	AreaBuckets       domain.BucketSet
	PriceBuckets      domain.BucketSet
}

// DefaultConfig matches the columns of projection.DefaultFieldMap.
func DefaultConfig() Config {
	return Config{
		YearColumn:        projection.ColDealYear,
		MonthColumn:       projection.ColDealMonth,
		SubRegionColumn:   projection.ColSubRegion,
		DealingTypeColumn: projection.ColDealingType,
		AreaColumn:        projection.ColArea,
		PriceColumn:       projection.ColDealAmount,
		AreaBuckets:       summary.AreaBuckets(),
		PriceBuckets:      summary.PriceBuckets(),
	}
}

// Counter computes grouped counts; the DuckDB summary store satisfies it.
type Counter interface {
	CountBy(ctx context.Context, t *domain.Table, dims ...string) (*domain.CountTable, error)
}

type memoryCounter struct{}

func (memoryCounter) CountBy(_ context.Context, t *domain.Table, dims ...string) (*domain.CountTable, error) {
	return summary.SummarizeBy(t, dims...)
}

type Builder struct {
	config  Config
	counter Counter
}

type Option func(*Builder)

func WithCounter(c Counter) Option {
	return func(b *Builder) {
		b.counter = c
	}
}

func NewBuilder(cfg Config, opts ...Option) *Builder {
	b := &Builder{config: cfg, counter: memoryCounter{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build is NewBuilder(cfg).Build with in-memory counting.
func Build(meta Meta, t *domain.Table, cfg Config) (*domain.Report, error) {
	return NewBuilder(cfg).Build(context.Background(), meta, t)
}

func (b *Builder) Build(ctx context.Context, meta Meta, t *domain.Table) (*domain.Report, error) {
	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = time.Now()
	}

	overview, total, err := b.overview(t)
	if err != nil {
		return nil, err
	}

	report := &domain.Report{
		Title:  fmt.Sprintf("%s 아파트 매매 실거래가 분석", meta.Region),
		Region: meta.Region,
		Period: domain.ReportPeriod{
			Start:  meta.Start,
			End:    meta.End,
			Months: len(domain.Months(meta.Start, meta.End)),
		},
		Rows:        t.Len(),
		TotalAmount: total,
		Currency:    Currency,
		GeneratedAt: meta.GeneratedAt,
		Sections:    []domain.ReportSection{overview},
	}

	monthly, droppedPeriods, err := summary.DerivePeriod(t, b.config.YearColumn, b.config.MonthColumn, summary.PeriodColumn)
	if err != nil {
		return nil, err
	}
	areas, droppedAreas, err := summary.Bucketize(t, b.config.AreaColumn, b.config.AreaBuckets, summary.AreaBandColumn)
	if err != nil {
		return nil, err
	}
	prices, droppedPrices, err := summary.Bucketize(t, b.config.PriceColumn, b.config.PriceBuckets, summary.PriceBandColumn)
	if err != nil {
		return nil, err
	}

	specs := []struct {
		title   string
		table   *domain.Table
		dim     string
		labels  []string
		dropped int
	}{
		{title: SectionMonthly, table: monthly, dim: summary.PeriodColumn, dropped: droppedPeriods},
		{title: SectionSubRegion, table: t, dim: b.config.SubRegionColumn},
		{title: SectionDealingType, table: t, dim: b.config.DealingTypeColumn},
		{title: SectionArea, table: areas, dim: summary.AreaBandColumn, labels: b.config.AreaBuckets.Labels(), dropped: droppedAreas},
		{title: SectionPrice, table: prices, dim: summary.PriceBandColumn, labels: b.config.PriceBuckets.Labels(), dropped: droppedPrices},
	}

	for _, s := range specs {
		counts, err := b.counter.CountBy(ctx, s.table, s.dim)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.title, err)
		}
		if s.labels != nil {
			counts = summary.OrderByLabels(counts, s.labels)
		}
		if s.dropped > 0 {
			zerolog.Ctx(ctx).Warn().Str("section", s.title).Int("dropped", s.dropped).Msg("rows without a usable value were skipped")
		}
		report.Sections = append(report.Sections, countSection(s.title, counts, s.dropped))
	}

	return report, nil
}

func (b *Builder) overview(t *domain.Table) (domain.ReportSection, float64, error) {
	col := t.ColumnIndex(b.config.PriceColumn)
	if col < 0 {
		return domain.ReportSection{}, 0, &domain.MissingFieldError{Field: b.config.PriceColumn}
	}

	var (
		total   float64
		priced  int
		missing int
	)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range t.Rows {
		v, err := domain.ParseNumber(row[col])
		if err != nil {
			missing++
			continue
		}
		total += v
		priced++
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	section := domain.ReportSection{
		Title: SectionOverview,
		Summary: map[string]interface{}{
			"거래 건수": t.Len(),
		},
		Details: []domain.ReportDetail{
			{Name: "거래 건수", Value: t.Len(), Unit: countUnit},
			{Name: "거래금액 합계", Value: total, Unit: Currency},
		},
	}
	if priced > 0 {
		section.Details = append(section.Details,
			domain.ReportDetail{Name: "평균 거래금액", Value: math.Round(total / float64(priced)), Unit: Currency},
			domain.ReportDetail{Name: "최저 거래금액", Value: lo, Unit: Currency},
			domain.ReportDetail{Name: "최고 거래금액", Value: hi, Unit: Currency},
		)
	}
	if missing > 0 {
		section.Details = append(section.Details, domain.ReportDetail{
			Name:        "금액 누락",
			Value:       missing,
			Unit:        countUnit,
			Description: "거래금액을 해석할 수 없는 거래",
		})
	}
	return section, total, nil
}

func countSection(title string, counts *domain.CountTable, dropped int) domain.ReportSection {
	section := domain.ReportSection{
		Title:   title,
		Summary: map[string]interface{}{"합계": counts.Total()},
		Counts:  counts,
		Details: make([]domain.ReportDetail, 0, len(counts.Rows)),
	}
	if dropped > 0 {
		section.Summary["제외"] = dropped
	}
	for _, r := range counts.Rows {
		section.Details = append(section.Details, domain.ReportDetail{
			Name:  strings.Join(r.Keys, " / "),
			Value: r.Count,
			Unit:  countUnit,
		})
	}
	return section
}
