package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, code string, start, end domain.Period) ([]domain.Record, error) {
	args := m.Called(ctx, code, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Record), args.Error(1)
}

func (m *mockFetcher) Schema() []string {
	return domain.TradeSchema
}

type memoryCache struct {
	months  map[string][]domain.Record
	failGet bool
	adds    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{months: map[string][]domain.Record{}}
}

func (c *memoryCache) Add(_ context.Context, code string, month domain.Period, records []domain.Record) error {
	c.adds++
	c.months[code+month.String()] = records
	return nil
}

func (c *memoryCache) Get(_ context.Context, code string, month domain.Period) ([]domain.Record, bool, error) {
	if c.failGet {
		return nil, false, errors.New("disk error")
	}
	records, ok := c.months[code+month.String()]
	return records, ok, nil
}

var (
	nov = domain.Period{Year: 2023, Month: 11}
	dec = domain.Period{Year: 2023, Month: 12}
	jan = domain.Period{Year: 2024, Month: 1}
)

func newCaching(inner Fetcher, cache Cache) *CachingFetcher {
	c := NewCachingFetcher(inner, cache)
	c.now = func() time.Time { return time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) }
	return c
}

func TestCachingFetcher(t *testing.T) {
	inner := new(mockFetcher)
	inner.On("Fetch", mock.Anything, "11680", nov, nov).Return([]domain.Record{{"m": "11"}}, nil)
	inner.On("Fetch", mock.Anything, "11680", dec, dec).Return([]domain.Record{}, nil)
	inner.On("Fetch", mock.Anything, "11680", jan, jan).Return([]domain.Record{{"m": "1"}}, nil)

	cache := newMemoryCache()
	c := newCaching(inner, cache)
	ctx := context.Background()

	first, err := c.Fetch(ctx, "11680", nov, jan)
	require.NoError(t, err)
	assert.Equal(t, []domain.Record{{"m": "11"}, {"m": "1"}}, first)
	assert.Equal(t, 2, cache.adds, "only settled months are cached")

	second, err := c.Fetch(ctx, "11680", nov, jan)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	inner.AssertNumberOfCalls(t, "Fetch", 4)
	assert.Equal(t, domain.TradeSchema, c.Schema())
}

func TestCachingFetcher_CacheReadFailure(t *testing.T) {
	inner := new(mockFetcher)
	inner.On("Fetch", mock.Anything, "11680", nov, nov).Return([]domain.Record{{"m": "11"}}, nil)

	cache := newMemoryCache()
	cache.failGet = true

	got, err := newCaching(inner, cache).Fetch(context.Background(), "11680", nov, nov)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCachingFetcher_FetchFailure(t *testing.T) {
	inner := new(mockFetcher)
	inner.On("Fetch", mock.Anything, "11680", nov, nov).Return(nil, &APIError{Code: "22", Message: "LIMITED"})

	cache := newMemoryCache()
	_, err := newCaching(inner, cache).Fetch(context.Background(), "11680", nov, dec)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, cache.adds)
}
