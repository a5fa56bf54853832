package fetcher

import (
	"context"
	"time"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Cache stores the raw records of one sub-region and month.
type Cache interface {
	Add(ctx context.Context, code string, month domain.Period, records []domain.Record) error
	Get(ctx context.Context, code string, month domain.Period) ([]domain.Record, bool, error)
}

// CachingFetcher serves settled months from a cache and fetches the rest month
// by month. The current and future months are never cached since the portal
// keeps adding late reports to them.
type CachingFetcher struct {
	inner Fetcher
	cache Cache
	now   func() time.Time
}

func NewCachingFetcher(inner Fetcher, cache Cache) *CachingFetcher {
	return &CachingFetcher{inner: inner, cache: cache, now: time.Now}
}

func (c *CachingFetcher) Schema() []string {
	return c.inner.Schema()
}

func (c *CachingFetcher) Fetch(ctx context.Context, code string, start, end domain.Period) ([]domain.Record, error) {
	logger := zerolog.Ctx(ctx)
	now := c.now()
	current := domain.Period{Year: now.Year(), Month: int(now.Month())}

	var out []domain.Record
	hits := 0
	for _, month := range domain.Months(start, end) {
		settled := month.Before(current)
		if settled {
			records, ok, err := c.cache.Get(ctx, code, month)
			if err != nil {
				logger.Warn().Err(err).Str("code", code).Stringer("month", month).Msg("cache read failed")
			}
			if ok {
				hits++
				out = append(out, records...)
				continue
			}
		}

		records, err := c.inner.Fetch(ctx, code, month, month)
		if err != nil {
			return nil, err
		}
		if settled {
			if err := c.cache.Add(ctx, code, month, records); err != nil {
				logger.Warn().Err(err).Str("code", code).Stringer("month", month).Msg("cache write failed")
			}
		}
		out = append(out, records...)
	}

	logger.Debug().Str("code", code).Int("cached_months", hits).Msg("trades fetched")
	return out, nil
}
