package fetcher

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultEndpoint = "https://apis.data.go.kr/1613000/RTMSDataSvcAptTrade"
	DefaultPageSize = 1000
	DefaultTimeout  = 30 * time.Second

	tradePath = "/getRTMSDataSvcAptTrade"
)

type ClientConfig struct {
	Endpoint          string
	ServiceKey        string
	PageSize          int
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client talks to the apartment trade endpoint of the public data portal.
type Client struct {
	endpoint   string
	serviceKey string
	pageSize   int
	httpClient *http.Client
	limiter    *rate.Limiter
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(cfg ClientConfig, opts ...ClientOption) (*Client, error) {
	if cfg.ServiceKey == "" {
		return nil, fmt.Errorf("service key is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", cfg.Endpoint, err)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	// Portal keys are often handed out pre-encoded; normalize so the query is encoded once.
	key := cfg.ServiceKey
	if strings.Contains(key, "%") {
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
	}

	c := &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		serviceKey: key,
		pageSize:   cfg.PageSize,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Schema() []string {
	return append([]string(nil), domain.TradeSchema...)
}

// Fetch walks every month from start to end and every page of each month.
func (c *Client) Fetch(ctx context.Context, code string, start, end domain.Period) ([]domain.Record, error) {
	logger := zerolog.Ctx(ctx).With().Str("lawd_cd", code).Logger()

	var records []domain.Record
	for _, month := range domain.Months(start, end) {
		monthRecords, err := c.fetchMonth(ctx, code, month)
		if err != nil {
			return nil, fmt.Errorf("month %s: %w", month, err)
		}
		logger.Debug().Str("deal_ymd", month.String()).Int("records", len(monthRecords)).Msg("fetched month")
		records = append(records, monthRecords...)
	}
	return records, nil
}

func (c *Client) fetchMonth(ctx context.Context, code string, month domain.Period) ([]domain.Record, error) {
	var records []domain.Record
	for page := 1; ; page++ {
		resp, err := c.fetchPage(ctx, code, month, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		for _, item := range resp.Body.Items.Item {
			records = append(records, item.record())
		}

		if len(resp.Body.Items.Item) == 0 || len(records) >= resp.Body.TotalCount {
			return records, nil
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, code string, month domain.Period, page int) (*tradeResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("serviceKey", c.serviceKey)
	q.Set("LAWD_CD", code)
	q.Set("DEAL_YMD", month.String())
	q.Set("pageNo", strconv.Itoa(page))
	q.Set("numOfRows", strconv.Itoa(c.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+tradePath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out tradeResponse
	if err := xml.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !out.ok() {
		return nil, &APIError{Code: out.Header.ResultCode, Message: out.Header.ResultMsg}
	}
	return &out, nil
}

// APIError is a non-success result code reported inside a 200 response.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %s: %s", e.Code, e.Message)
}

type tradeResponse struct {
	XMLName xml.Name `xml:"response"`
	Header  struct {
		ResultCode string `xml:"resultCode"`
		ResultMsg  string `xml:"resultMsg"`
	} `xml:"header"`
	Body struct {
		Items struct {
			Item []tradeItem `xml:"item"`
		} `xml:"items"`
		NumOfRows  int `xml:"numOfRows"`
		PageNo     int `xml:"pageNo"`
		TotalCount int `xml:"totalCount"`
	} `xml:"body"`
}

func (r *tradeResponse) ok() bool {
	code := strings.TrimSpace(r.Header.ResultCode)
	return code == "00" || code == "000"
}

type tradeItem struct {
	Fields []tradeField `xml:",any"`
}

type tradeField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// record keeps every element of the item; declared fields the item omits are empty.
func (i tradeItem) record() domain.Record {
	rec := make(domain.Record, len(domain.TradeSchema))
	for _, name := range domain.TradeSchema {
		rec[name] = ""
	}
	for _, f := range i.Fields {
		rec[f.XMLName.Local] = strings.TrimSpace(f.Value)
	}
	return rec
}
