package airtable

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL = "https://api.airtable.com/v0"
	identityField  = "FixtureID"
	// MaxRecordsPerRequest is the store's hard limit for batch writes.
	MaxRecordsPerRequest = 10
	lookupPageSize       = 100
)

type ClientConfig struct {
	HTTPClient  *http.Client
	BaseURL     string
	APIKey      string
	BaseID      string
	Table       string
	Timeout     time.Duration
	MaxAttempts int
	Sleep       resilience.Sleeper
	Logger      *logging.Logger
}

// Client talks to one Airtable table. It implements fixture.RemoteStore.
type Client struct {
	httpClient *http.Client
	tableURL   string
	apiKey     string
	policy     resilience.RetryPolicy
	logger     *logging.Logger
}

var _ fixture.RemoteStore = (*Client)(nil)

// ErrInvalidBatch rejects a write batch before it is sent.
var ErrInvalidBatch = crerr.New("invalid airtable batch")

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	policy := resilience.DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.Sleep != nil {
		policy.Sleep = cfg.Sleep
	}
	policy.Logger = logger

	return &Client{
		httpClient: httpClient,
		tableURL:   baseURL + "/" + url.PathEscape(strings.TrimSpace(cfg.BaseID)) + "/" + url.PathEscape(strings.TrimSpace(cfg.Table)),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		policy:     policy,
		logger:     logger,
	}
}

// Lookup returns one page of rows whose FixtureID is among identities.
func (c *Client) Lookup(ctx context.Context, identities []string, offset string) (fixture.LookupPage, error) {
	if len(identities) == 0 {
		return fixture.LookupPage{}, nil
	}

	values := url.Values{}
	values.Set("filterByFormula", identityFormula(identities))
	values.Add("fields[]", identityField)
	values.Set("pageSize", fmt.Sprintf("%d", lookupPageSize))
	if offset != "" {
		values.Set("offset", offset)
	}
	fullURL := c.tableURL + "?" + values.Encode()

	resp, err := resilience.FetchWithRetry(ctx, c.httpClient, c.newRequest(http.MethodGet, fullURL, nil), c.policy)
	if err != nil {
		return fixture.LookupPage{}, crerr.Wrapf(err, "airtable lookup identities=%d", len(identities))
	}

	return fixture.LookupPage{
		Rows:   decodeRows(resp.Body),
		Offset: gjson.GetBytes(resp.Body, "offset").String(),
	}, nil
}

// BatchCreate creates up to MaxRecordsPerRequest rows in one request.
func (c *Client) BatchCreate(ctx context.Context, plans []fixture.CreatePlan) ([]fixture.RemoteRow, error) {
	if len(plans) == 0 {
		return nil, nil
	}
	if len(plans) > MaxRecordsPerRequest {
		return nil, fmt.Errorf("%w: batch of %d exceeds %d records", ErrInvalidBatch, len(plans), MaxRecordsPerRequest)
	}

	payload := createRequest{Records: make([]createItem, 0, len(plans)), Typecast: true}
	for _, plan := range plans {
		payload.Records = append(payload.Records, createItem{Fields: plan.Fields})
	}
	return c.write(ctx, http.MethodPost, payload, len(plans))
}

// BatchUpdate patches up to MaxRecordsPerRequest rows in one request. Only
// the columns present in each plan are touched.
func (c *Client) BatchUpdate(ctx context.Context, plans []fixture.UpdatePlan) ([]fixture.RemoteRow, error) {
	if len(plans) == 0 {
		return nil, nil
	}
	if len(plans) > MaxRecordsPerRequest {
		return nil, fmt.Errorf("%w: batch of %d exceeds %d records", ErrInvalidBatch, len(plans), MaxRecordsPerRequest)
	}

	payload := updateRequest{Records: make([]updateItem, 0, len(plans)), Typecast: true}
	for _, plan := range plans {
		if strings.TrimSpace(plan.RowID) == "" {
			return nil, fmt.Errorf("%w: update plan for %s has no row id", ErrInvalidBatch, plan.Fields.FixtureID)
		}
		payload.Records = append(payload.Records, updateItem{ID: plan.RowID, Fields: plan.Fields})
	}
	return c.write(ctx, http.MethodPatch, payload, len(plans))
}

func (c *Client) write(ctx context.Context, method string, payload any, count int) ([]fixture.RemoteRow, error) {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return nil, crerr.Wrap(err, "encode airtable payload")
	}

	resp, err := resilience.FetchWithRetry(ctx, c.httpClient, c.newRequest(method, c.tableURL, body), c.policy)
	if err != nil {
		return nil, crerr.Wrapf(err, "airtable %s records=%d", strings.ToLower(method), count)
	}
	return decodeRows(resp.Body), nil
}

func (c *Client) newRequest(method, fullURL string, body []byte) resilience.RequestFunc {
	return func(ctx context.Context) (*http.Request, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}
}

// decodeRows reads records[].id and records[].fields.FixtureID. Numeric
// identities come back as their literal text.
func decodeRows(body []byte) []fixture.RemoteRow {
	records := gjson.GetBytes(body, "records").Array()
	rows := make([]fixture.RemoteRow, 0, len(records))
	for _, record := range records {
		rowID := record.Get("id").String()
		if rowID == "" {
			continue
		}
		rows = append(rows, fixture.RemoteRow{
			ID:        rowID,
			FixtureID: strings.TrimSpace(record.Get("fields." + identityField).String()),
		})
	}
	return rows
}

type createRequest struct {
	Records  []createItem `json:"records"`
	Typecast bool         `json:"typecast"`
}

type createItem struct {
	Fields fixture.Fields `json:"fields"`
}

type updateRequest struct {
	Records  []updateItem `json:"records"`
	Typecast bool         `json:"typecast"`
}

type updateItem struct {
	ID     string         `json:"id"`
	Fields fixture.Fields `json:"fields"`
}
