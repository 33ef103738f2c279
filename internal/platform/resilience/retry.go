package resilience

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
)

const (
	DefaultMaxAttempts  = 3
	maxResponseBodySize = 8 << 20
	maxErrorBodyLength  = 240
)

// ErrTransient marks failures that were retried until attempts ran out.
var ErrTransient = crerr.New("transient remote failure")

// RemoteCallError is returned when a remote call ends without a 2xx response.
type RemoteCallError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Attempts   int
	Cause      error
}

func (e *RemoteCallError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s failed after %d attempt(s): %v", e.Method, e.URL, e.Attempts, e.Cause)
	}
	return fmt.Sprintf("%s %s failed after %d attempt(s): status=%d body=%s", e.Method, e.URL, e.Attempts, e.StatusCode, e.Body)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the final failure was of a retryable class.
func (e *RemoteCallError) Retryable() bool {
	return e.StatusCode == 0 || IsRetryableStatus(e.StatusCode)
}

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestFunc builds a fresh request per attempt so bodies can be replayed.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

type RetryPolicy struct {
	MaxAttempts int
	Sleep       Sleeper
	Logger      *logging.Logger
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, Sleep: SleepContext}
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// FetchWithRetry performs a request until it gets a 2xx response. Status 429,
// 500, 502, 503 and 504 as well as transport errors are retried after
// 2^attempt seconds. Any other status fails immediately.
func FetchWithRetry(ctx context.Context, client Doer, newRequest RequestFunc, policy RetryPolicy) (*Response, error) {
	maxAttempts := policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	logger := policy.Logger
	if logger == nil {
		logger = logging.Default()
	}

	var lastErr *RemoteCallError
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := newRequest(ctx)
		if err != nil {
			return nil, crerr.Wrap(err, "build request")
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			lastErr = &RemoteCallError{
				Method:   req.Method,
				URL:      redactURL(req.URL.String()),
				Attempts: attempt,
				Cause:    crerr.Mark(crerr.Wrap(err, "send request"), ErrTransient),
			}
		} else {
			body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = &RemoteCallError{
					Method:   req.Method,
					URL:      redactURL(req.URL.String()),
					Attempts: attempt,
					Cause:    crerr.Mark(crerr.Wrap(readErr, "read response body"), ErrTransient),
				}
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
			default:
				lastErr = &RemoteCallError{
					Method:     req.Method,
					URL:        redactURL(req.URL.String()),
					StatusCode: resp.StatusCode,
					Body:       AbbreviateBody(body),
					Attempts:   attempt,
				}
				if !IsRetryableStatus(resp.StatusCode) {
					return nil, lastErr
				}
				lastErr.Cause = ErrTransient
			}
		}

		if attempt == maxAttempts {
			break
		}
		wait := Backoff(attempt)
		logger.WarnContext(ctx, "remote call retrying",
			"method", lastErr.Method,
			"url", lastErr.URL,
			"status", lastErr.StatusCode,
			"attempt", attempt,
			"wait", wait,
		)
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// Backoff is 2^attempt seconds for a 1-based attempt number.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 10 {
		attempt = 10
	}
	return time.Duration(1<<attempt) * time.Second
}

func IsRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func AbbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= maxErrorBodyLength {
		return text
	}
	return text[:maxErrorBodyLength] + "..."
}

// redactURL drops the query string, which may carry long lookup formulas.
func redactURL(raw string) string {
	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		return raw[:idx]
	}
	return raw
}
