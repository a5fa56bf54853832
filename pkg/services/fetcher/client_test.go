package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePortal struct {
	mu         sync.Mutex
	requests   []string
	months     map[string][]string
	resultCode string
}

func (p *fakePortal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	p.mu.Lock()
	p.requests = append(p.requests, q.Get("DEAL_YMD")+"/"+q.Get("pageNo"))
	p.mu.Unlock()

	if r.URL.Path != tradePath || q.Get("serviceKey") != "secret/key" || q.Get("LAWD_CD") != "11680" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	code := p.resultCode
	if code == "" {
		code = "000"
	}

	amounts := p.months[q.Get("DEAL_YMD")]
	page, _ := strconv.Atoi(q.Get("pageNo"))
	size, _ := strconv.Atoi(q.Get("numOfRows"))
	from := (page - 1) * size
	to := min(from+size, len(amounts))

	var items strings.Builder
	for i := from; i < to; i++ {
		fmt.Fprintf(&items, "<item><aptNm>Apt %d</aptNm><dealAmount>  %s</dealAmount><dealYear>%s</dealYear><extraField>x</extraField></item>",
			i, amounts[i], q.Get("DEAL_YMD")[:4])
	}

	w.Header().Set("Content-Type", "application/xml")
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><response><header><resultCode>%s</resultCode><resultMsg>OK</resultMsg></header><body><items>%s</items><numOfRows>%d</numOfRows><pageNo>%d</pageNo><totalCount>%d</totalCount></body></response>`,
		code, items.String(), size, page, len(amounts))
}

func setupClient(t *testing.T, portal *fakePortal, pageSize int) *Client {
	srv := httptest.NewServer(portal)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{
		Endpoint:   srv.URL,
		ServiceKey: "secret%2Fkey",
		PageSize:   pageSize,
	})
	require.NoError(t, err)
	return client
}

func TestClient_Fetch(t *testing.T) {
	portal := &fakePortal{months: map[string][]string{
		"202401": {"82,500", "91,000", "120,000"},
		"202402": {},
		"202403": {"77,700"},
	}}
	client := setupClient(t, portal, 2)

	start := domain.Period{Year: 2024, Month: 1}
	end := domain.Period{Year: 2024, Month: 3}
	records, err := client.Fetch(context.Background(), "11680", start, end)
	require.NoError(t, err)

	require.Len(t, records, 4)
	amounts := make([]string, len(records))
	for i, rec := range records {
		amounts[i] = rec[domain.RawDealAmount]
	}
	assert.Equal(t, []string{"82,500", "91,000", "120,000", "77,700"}, amounts)
	assert.Equal(t, "2024", records[0][domain.RawDealYear])
	assert.Equal(t, "x", records[0]["extraField"])

	for _, field := range client.Schema() {
		_, ok := records[0][field]
		assert.True(t, ok, "field %s", field)
	}

	assert.Equal(t, []string{"202401/1", "202401/2", "202402/1", "202403/1"}, portal.requests)
}

func TestClient_ResultCode(t *testing.T) {
	portal := &fakePortal{
		months:     map[string][]string{"202401": {"1"}},
		resultCode: "30",
	}
	client := setupClient(t, portal, 10)

	p := domain.Period{Year: 2024, Month: 1}
	_, err := client.Fetch(context.Background(), "11680", p, p)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "30", apiErr.Code)
}

func TestClient_HTTPStatus(t *testing.T) {
	client := setupClient(t, &fakePortal{}, 10)

	p := domain.Period{Year: 2024, Month: 1}
	_, err := client.Fetch(context.Background(), "99999", p, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 400")
}

func TestClient_ContextCancelled(t *testing.T) {
	client := setupClient(t, &fakePortal{months: map[string][]string{}}, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := domain.Period{Year: 2024, Month: 1}
	_, err := client.Fetch(ctx, "11680", p, p)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	assert.Error(t, err)

	client, err := NewClient(ClientConfig{ServiceKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, client.endpoint)
	assert.Equal(t, DefaultPageSize, client.pageSize)
}
