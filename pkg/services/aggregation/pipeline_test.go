package aggregation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
	"github.com/de-tools/realty-atlas/pkg/services/region"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const seoulDirectory = `[
  {"si_do_name": "Seoul", "si_do_code": "11", "sigungu": [
    {"sigungu_code": "1168", "sigungu_name": "Gangnam"},
    {"sigungu_code": "1171", "sigungu_name": "Songpa"}
  ]},
  {"si_do_name": "Busan", "si_do_code": "26", "sigungu": [
    {"sigungu_code": "26350", "sigungu_name": "Haeundae"}
  ]}
]`

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
	return []string{domain.RawAptName, domain.RawDealAmount}
}

func records(code string, n int) []domain.Record {
	out := make([]domain.Record, n)
	for i := range out {
		out[i] = domain.Record{
			domain.RawAptName:    code + "-" + string(rune('a'+i)),
			domain.RawDealAmount: "10,000",
		}
	}
	return out
}

func setupDirectory(t *testing.T) *region.Directory {
	dir, err := region.Parse(strings.NewReader(seoulDirectory))
	require.NoError(t, err)
	return dir
}

var jan2023 = domain.Period{Year: 2023, Month: 1}

func TestPipeline_Aggregate(t *testing.T) {
	f := new(mockFetcher)
	f.On("Fetch", mock.Anything, "1168", jan2023, jan2023).Return(records("1168", 3), nil).Once()
	f.On("Fetch", mock.Anything, "1171", jan2023, jan2023).Return(records("1171", 2), nil).Once()

	var progress []Progress
	p := NewPipeline(setupDirectory(t), f, WithProgress(func(pr Progress) {
		progress = append(progress, pr)
	}))

	table, err := p.Aggregate(context.Background(), "Seoul", "202301", "202301")
	require.NoError(t, err)
	f.AssertExpectations(t)

	require.Equal(t, 5, table.Len())
	for i, row := range table.Rows {
		want := "Gangnam"
		if i >= 3 {
			want = "Songpa"
		}
		assert.Equal(t, want, row.SubRegionName)
		assert.Equal(t, "Seoul", row.RegionName)
	}
	assert.Equal(t, "1168-a", table.Rows[0].Record[domain.RawAptName])
	assert.Equal(t, "1171-b", table.Rows[4].Record[domain.RawAptName])

	assert.Equal(t, []string{domain.FieldRegionName, domain.FieldSubRegionName, domain.RawAptName, domain.RawDealAmount}, table.Schema())
	assert.Equal(t, []Progress{
		{Completed: 1, Total: 2, SubRegion: "Gangnam"},
		{Completed: 2, Total: 2, SubRegion: "Songpa"},
	}, progress)
}

func TestPipeline_Idempotent(t *testing.T) {
	f := new(mockFetcher)
	f.On("Fetch", mock.Anything, "1168", jan2023, jan2023).Return(records("1168", 3), nil)
	f.On("Fetch", mock.Anything, "1171", jan2023, jan2023).Return(records("1171", 2), nil)

	p := NewPipeline(setupDirectory(t), f)
	first, err := p.Aggregate(context.Background(), "Seoul", "202301", "202301")
	require.NoError(t, err)
	second, err := p.Aggregate(context.Background(), "Seoul", "202301", "202301")
	require.NoError(t, err)

	assert.Equal(t, first.Rows, second.Rows)
	f.AssertNumberOfCalls(t, "Fetch", 4)
}

func TestPipeline_Nationwide(t *testing.T) {
	f := new(mockFetcher)
	f.On("Fetch", mock.Anything, "1168", mock.Anything, mock.Anything).Return(records("1168", 1), nil).Once()
	f.On("Fetch", mock.Anything, "1171", mock.Anything, mock.Anything).Return(records("1171", 0), nil).Once()
	f.On("Fetch", mock.Anything, "26350", mock.Anything, mock.Anything).Return(records("26350", 4), nil).Once()

	table, err := NewPipeline(setupDirectory(t), f).Aggregate(context.Background(), domain.Nationwide, "202301", "202303")
	require.NoError(t, err)
	f.AssertExpectations(t)

	require.Equal(t, 5, table.Len())
	assert.Equal(t, "Gangnam", table.Rows[0].SubRegionName)
	assert.Equal(t, "Busan", table.Rows[1].RegionName)
}

func TestPipeline_InputErrors(t *testing.T) {
	tests := []struct {
		name       string
		region     string
		start, end string
		target     error
	}{
		{name: "unknown region", region: "Atlantis", start: "202301", end: "202301", target: domain.ErrUnknownRegion},
		{name: "malformed period", region: "Seoul", start: "2023-01", end: "202301", target: domain.ErrInvalidPeriod},
		{name: "inverted range", region: "Seoul", start: "202305", end: "202301", target: domain.ErrInvalidPeriod},
		{name: "bad period beats unknown region", region: "Atlantis", start: "202313", end: "202401", target: domain.ErrInvalidPeriod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := new(mockFetcher)
			_, err := NewPipeline(setupDirectory(t), f).Aggregate(context.Background(), tt.region, tt.start, tt.end)
			assert.ErrorIs(t, err, tt.target)
			f.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestPipeline_FetchFailure(t *testing.T) {
	quota := errors.New("quota exceeded")

	f := new(mockFetcher)
	f.On("Fetch", mock.Anything, "1168", mock.Anything, mock.Anything).Return(records("1168", 3), nil).Once()
	f.On("Fetch", mock.Anything, "1171", mock.Anything, mock.Anything).Return(nil, quota).Once()

	table, err := NewPipeline(setupDirectory(t), f).Aggregate(context.Background(), domain.Nationwide, "202301", "202301")
	assert.Nil(t, table)

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "1171", fetchErr.SubRegionCode)
	assert.Equal(t, "Songpa", fetchErr.SubRegionName)
	assert.ErrorIs(t, err, quota)
	assert.Equal(t, domain.KindFetch, domain.KindOf(err))

	f.AssertNotCalled(t, "Fetch", mock.Anything, "26350", mock.Anything, mock.Anything)
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := new(mockFetcher)
	_, err := NewPipeline(setupDirectory(t), f).Aggregate(ctx, "Seoul", "202301", "202301")

	assert.ErrorIs(t, err, domain.ErrFetch)
	assert.ErrorIs(t, err, context.Canceled)
	f.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// slowFetcher finishes later sub-regions first.
type slowFetcher struct {
	mu    sync.Mutex
	calls []string
	delay map[string]time.Duration
	fail  string
}

func (f *slowFetcher) Fetch(ctx context.Context, code string, _, _ domain.Period) ([]domain.Record, error) {
	f.mu.Lock()
	f.calls = append(f.calls, code)
	f.mu.Unlock()

	select {
	case <-time.After(f.delay[code]):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if code == f.fail {
		return nil, errors.New("boom")
	}
	return records(code, 2), nil
}

func (f *slowFetcher) Schema() []string {
	return []string{domain.RawAptName, domain.RawDealAmount}
}

func TestPipeline_ConcurrentPreservesOrder(t *testing.T) {
	f := &slowFetcher{delay: map[string]time.Duration{
		"1168":  60 * time.Millisecond,
		"1171":  30 * time.Millisecond,
		"26350": 0,
	}}

	var (
		mu       sync.Mutex
		progress []Progress
	)
	p := NewPipeline(setupDirectory(t), f, WithConcurrency(3), WithProgress(func(pr Progress) {
		mu.Lock()
		defer mu.Unlock()
		progress = append(progress, pr)
	}))

	table, err := p.Aggregate(context.Background(), domain.Nationwide, "202301", "202301")
	require.NoError(t, err)

	names := make([]string, table.Len())
	for i, row := range table.Rows {
		names[i] = row.Record[domain.RawAptName]
	}
	assert.Equal(t, []string{"1168-a", "1168-b", "1171-a", "1171-b", "26350-a", "26350-b"}, names)

	require.Len(t, progress, 3)
	for i, pr := range progress {
		assert.Equal(t, i+1, pr.Completed)
		assert.Equal(t, 3, pr.Total)
	}
	assert.Len(t, f.calls, 3)
}

func TestPipeline_ConcurrentFailure(t *testing.T) {
	f := &slowFetcher{
		delay: map[string]time.Duration{"1168": time.Second, "1171": 0, "26350": time.Second},
		fail:  "1171",
	}

	start := time.Now()
	table, err := NewPipeline(setupDirectory(t), f, WithConcurrency(3)).
		Aggregate(context.Background(), domain.Nationwide, "202301", "202301")

	assert.Nil(t, table)
	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "1171", fetchErr.SubRegionCode)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}
