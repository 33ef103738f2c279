package resilience

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type HTTPClientConfig struct {
	Timeout time.Duration
	// MaxRetries counts retries after the first attempt.
	MaxRetries int
	Logger     *logging.Logger
	// Transport defaults to http.DefaultTransport; always wrapped by otelhttp.
	Transport http.RoundTripper
	// Backoff overrides the 2^attempt schedule, mainly for tests.
	Backoff retryablehttp.Backoff
}

// NewRetryingHTTPClient returns a standard *http.Client that retries
// transport errors and the retryable status set with exponential backoff.
// When retries run out the last response is handed back unchanged so callers
// can inspect its status.
func NewRetryingHTTPClient(cfg HTTPClientConfig) *http.Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(transport),
	}
	client.Logger = logger
	client.RetryMax = max(cfg.MaxRetries, 0)
	client.RetryWaitMin = Backoff(1)
	client.RetryWaitMax = Backoff(10)
	client.CheckRetry = retryOnTransientFailure
	client.Backoff = cfg.Backoff
	if client.Backoff == nil {
		client.Backoff = exponentialBackoff
	}
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return client.StandardClient()
}

func retryOnTransientFailure(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	return IsRetryableStatus(resp.StatusCode), nil
}

// attemptNum is zero for the first retry.
func exponentialBackoff(_, _ time.Duration, attemptNum int, _ *http.Response) time.Duration {
	return Backoff(attemptNum + 1)
}
