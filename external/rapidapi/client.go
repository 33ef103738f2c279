package rapidapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
	"github.com/tidwall/gjson"
)

const maxBodySize = 16 << 20

// Client performs authenticated GETs against one RapidAPI host. Retries are
// the job of the injected *http.Client.
type Client struct {
	httpClient *http.Client
	apiKey     string
	host       string
	attempts   int
}

// NewClient expects httpClient to come from resilience.NewRetryingHTTPClient
// configured with maxRetries.
func NewClient(httpClient *http.Client, apiKey, host string, maxRetries int) *Client {
	if httpClient == nil {
		httpClient = resilience.NewRetryingHTTPClient(resilience.HTTPClientConfig{MaxRetries: maxRetries})
	}
	return &Client{
		httpClient: httpClient,
		apiKey:     strings.TrimSpace(apiKey),
		host:       strings.TrimSpace(host),
		attempts:   max(maxRetries, 0) + 1,
	}
}

// GetJSON returns the body of a 2xx JSON response.
func (c *Client) GetJSON(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, crerr.Wrap(err, "build request")
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &resilience.RemoteCallError{
			Method:   req.Method,
			URL:      req.URL.String(),
			Attempts: c.attempts,
			Cause:    crerr.Mark(crerr.Wrap(err, "send request"), resilience.ErrTransient),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, crerr.Wrap(err, "read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		attempts := 1
		if resilience.IsRetryableStatus(resp.StatusCode) {
			attempts = c.attempts
		}
		return nil, &resilience.RemoteCallError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       resilience.AbbreviateBody(body),
			Attempts:   attempts,
		}
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode %s: response is not valid JSON", req.URL.Path)
	}
	return body, nil
}

// Items returns the raw JSON of each element under key.
func Items(body []byte, key string) [][]byte {
	result := gjson.GetBytes(body, key)
	if !result.IsArray() {
		return nil
	}
	out := make([][]byte, 0, len(result.Array()))
	result.ForEach(func(_, value gjson.Result) bool {
		out = append(out, []byte(value.Raw))
		return true
	})
	return out
}
