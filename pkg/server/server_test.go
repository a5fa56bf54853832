package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/realty-atlas/pkg/models/api"
	"github.com/de-tools/realty-atlas/pkg/models/domain"
	"github.com/de-tools/realty-atlas/pkg/services/explorer"
	"github.com/de-tools/realty-atlas/pkg/services/region"
	"github.com/de-tools/realty-atlas/pkg/services/workflow"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const directoryDoc = `[
  {"si_do_name": "서울특별시", "si_do_code": "11", "sigungu": [
    {"sigungu_code": "11680", "sigungu_name": "강남구"},
    {"sigungu_code": "11710", "sigungu_name": "송파구"}
  ]}
]`

// staticFetcher returns fixed trades per sub-region regardless of the range.
type staticFetcher struct {
	trades map[string][]domain.Record
}

func (f *staticFetcher) Fetch(ctx context.Context, code string, start, end domain.Period) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.Record
	for _, rec := range f.trades[code] {
		clone := make(domain.Record, len(rec))
		for k, v := range rec {
			clone[k] = v
		}
		out = append(out, clone)
	}
	return out, nil
}

func (f *staticFetcher) Schema() []string {
	return domain.TradeSchema
}

func trade(amount, area string) domain.Record {
	rec := make(domain.Record, len(domain.TradeSchema))
	for _, f := range domain.TradeSchema {
		rec[f] = ""
	}
	rec[domain.RawDealYear] = "2023"
	rec[domain.RawDealMonth] = "1"
	rec[domain.RawDealAmount] = amount
	rec[domain.RawExclusiveArea] = area
	rec[domain.RawDealingGbn] = "중개거래"
	return rec
}

func newTestServer(t *testing.T) *httptest.Server {
	dir, err := region.Parse(strings.NewReader(directoryDoc))
	require.NoError(t, err)

	f := &staticFetcher{trades: map[string][]domain.Record{
		"11680": {trade("150,000", "84.9"), trade("230,000", "114.2")},
		"11710": {trade("98,000", "59.8")},
	}}
	exp, err := explorer.NewExplorer(dir, f, explorer.Options{})
	require.NoError(t, err)

	config := Config{
		Addr:            ":8080",
		ShutdownTimeout: time.Second,
		Dependencies: Dependencies{
			Explorer: exp,
			Jobs:     workflow.NewController(exp),
			Logger:   zerolog.New(zerolog.NewTestWriter(t)),
		},
	}
	testServer := httptest.NewServer(ConfigureRouter(config))
	t.Cleanup(testServer.Close)
	return testServer
}

func seoulQuery() string {
	return url.Values{"region": {"서울특별시"}, "from": {"202301"}, "to": {"202301"}}.Encode()
}

func TestWebAPI_Endpoints(t *testing.T) {
	testServer := newTestServer(t)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		check          func(t *testing.T, body []byte)
	}{
		{
			name:           "ListRegions",
			path:           "/api/v1/regions",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				regions := decode[[]api.Region](t, body)
				require.Len(t, regions, 1)
				assert.Equal(t, "서울특별시", regions[0].Name)
			},
		},
		{
			name:           "GetRegion",
			path:           "/api/v1/regions/" + url.PathEscape("서울특별시"),
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				assert.Len(t, decode[api.Region](t, body).SubRegions, 2)
			},
		},
		{
			name:           "GetRegion_Unknown",
			path:           "/api/v1/regions/Atlantis",
			expectedStatus: http.StatusNotFound,
			check: func(t *testing.T, body []byte) {
				assert.Equal(t, domain.KindUnknownRegion, decode[api.Error](t, body).Kind)
			},
		},
		{
			name:           "GetTransactions",
			path:           "/api/v1/transactions?" + seoulQuery(),
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				table := decode[api.Table](t, body)
				assert.Equal(t, 3, table.Count)
				assert.Equal(t, "시도", table.Columns[0])
			},
		},
		{
			name:           "GetTransactions_InvalidPeriod",
			path:           "/api/v1/transactions?region=Atlantis&from=202313&to=202301",
			expectedStatus: http.StatusBadRequest,
			check: func(t *testing.T, body []byte) {
				assert.Equal(t, domain.KindInvalidPeriod, decode[api.Error](t, body).Kind)
			},
		},
		{
			name:           "GetSummary",
			path:           "/api/v1/summary?" + seoulQuery() + "&by=" + url.QueryEscape("시군구"),
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				counts := decode[api.CountTable](t, body)
				assert.Equal(t, 3, counts.Total)
				assert.Equal(t, []api.CountRow{
					{Keys: []string{"강남구"}, Count: 2},
					{Keys: []string{"송파구"}, Count: 1},
				}, counts.Rows)
			},
		},
		{
			name:           "GetReport",
			path:           "/api/v1/report?" + seoulQuery(),
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				rep := decode[api.Report](t, body)
				assert.Equal(t, 3, rep.Rows)
				assert.Equal(t, float64(478000), rep.TotalAmount)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(testServer.URL + tc.path)
			require.NoError(t, err, "Failed to send request")
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "Status code mismatch")
			assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "Failed to read response body")
			tc.check(t, body)
		})
	}
}

func TestWebAPI_JobLifecycle(t *testing.T) {
	testServer := newTestServer(t)

	payload, err := json.Marshal(api.CreateJobRequest{Region: "서울특별시", From: "202301", To: "202302"})
	require.NoError(t, err)

	resp, err := http.Post(testServer.URL+"/api/v1/jobs", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	created := readJSON[api.Job](t, resp)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.NotEmpty(t, created.ID)

	var job api.Job
	require.Eventually(t, func() bool {
		resp, err := http.Get(testServer.URL + "/api/v1/jobs/" + created.ID)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
			return false
		}
		return job.Status == api.JobStatus(domain.JobSucceeded)
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, job.Total)
	assert.Equal(t, 3, job.Rows)

	resp, err = http.Get(testServer.URL + "/api/v1/jobs/" + created.ID + "/result")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, readJSON[api.Table](t, resp).Count)

	resp, err = http.Get(testServer.URL + "/api/v1/jobs")
	require.NoError(t, err)
	assert.Len(t, readJSON[[]api.Job](t, resp), 1)

	req, err := http.NewRequest(http.MethodDelete, testServer.URL+"/api/v1/jobs/"+created.ID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "finished jobs cannot be cancelled")

	resp, err = http.Get(testServer.URL + "/api/v1/jobs/unknown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func decode[T any](t *testing.T, data []byte) T {
	var out T
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func readJSON[T any](t *testing.T, resp *http.Response) T {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return decode[T](t, data)
}
