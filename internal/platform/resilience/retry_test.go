package resilience

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
)

type recordingSleeper struct {
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

func statusServer(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idx := int(calls.Add(1)) - 1
		status := statuses[len(statuses)-1]
		if idx < len(statuses) {
			status = statuses[idx]
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"status":` + http.StatusText(status) + `}`))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func getRequest(url string) RequestFunc {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestFetchWithRetry_RetriesRateLimitThenSucceeds(t *testing.T) {
	t.Parallel()

	server, calls := statusServer(t, http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusOK)
	sleeper := &recordingSleeper{}

	resp, err := FetchWithRetry(context.Background(), server.Client(), getRequest(server.URL+"/records?filterByFormula=x"), RetryPolicy{
		MaxAttempts: 3,
		Sleep:       sleeper.Sleep,
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(sleeper.waits) != len(want) || sleeper.waits[0] != want[0] || sleeper.waits[1] != want[1] {
		t.Fatalf("unexpected waits: %v", sleeper.waits)
	}
}

func TestFetchWithRetry_FailsAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	server, calls := statusServer(t, http.StatusInternalServerError)
	sleeper := &recordingSleeper{}

	_, err := FetchWithRetry(context.Background(), server.Client(), getRequest(server.URL), RetryPolicy{
		MaxAttempts: 3,
		Sleep:       sleeper.Sleep,
	})
	var callErr *RemoteCallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected RemoteCallError, got %v", err)
	}
	if callErr.StatusCode != http.StatusInternalServerError || callErr.Attempts != 3 {
		t.Fatalf("unexpected error: %+v", callErr)
	}
	if !crerr.Is(err, ErrTransient) {
		t.Fatalf("expected transient marker on exhausted retries")
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	if len(sleeper.waits) != 2 {
		t.Fatalf("expected no sleep after last attempt, got %v", sleeper.waits)
	}
}

func TestFetchWithRetry_NonRetryableStatusFailsImmediately(t *testing.T) {
	t.Parallel()

	server, calls := statusServer(t, http.StatusUnprocessableEntity)
	sleeper := &recordingSleeper{}

	_, err := FetchWithRetry(context.Background(), server.Client(), getRequest(server.URL), RetryPolicy{
		MaxAttempts: 3,
		Sleep:       sleeper.Sleep,
	})
	var callErr *RemoteCallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected RemoteCallError, got %v", err)
	}
	if callErr.StatusCode != http.StatusUnprocessableEntity || callErr.Retryable() {
		t.Fatalf("unexpected error: %+v", callErr)
	}
	if calls.Load() != 1 || len(sleeper.waits) != 0 {
		t.Fatalf("expected a single call without sleeping, calls=%d waits=%v", calls.Load(), sleeper.waits)
	}
}

type failingDoer struct {
	calls int
}

func (d *failingDoer) Do(*http.Request) (*http.Response, error) {
	d.calls++
	return nil, errors.New("connection reset by peer")
}

func TestFetchWithRetry_TransportErrorsAreRetried(t *testing.T) {
	t.Parallel()

	doer := &failingDoer{}
	sleeper := &recordingSleeper{}

	_, err := FetchWithRetry(context.Background(), doer, getRequest("http://store.invalid/v0/base/table?x=1"), RetryPolicy{
		MaxAttempts: 2,
		Sleep:       sleeper.Sleep,
	})
	var callErr *RemoteCallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected RemoteCallError, got %v", err)
	}
	if callErr.StatusCode != 0 || !callErr.Retryable() {
		t.Fatalf("unexpected error: %+v", callErr)
	}
	if strings.Contains(callErr.URL, "?") {
		t.Fatalf("expected query to be redacted: %s", callErr.URL)
	}
	if doer.calls != 2 || len(sleeper.waits) != 1 || sleeper.waits[0] != 2*time.Second {
		t.Fatalf("unexpected calls=%d waits=%v", doer.calls, sleeper.waits)
	}
}

func TestFetchWithRetry_ReplaysRequestBody(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		bodies []string
		calls  atomic.Int32
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(raw))
		mu.Unlock()
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	payload := `{"records":[]}`
	_, err := FetchWithRetry(context.Background(), server.Client(), func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodPost, server.URL, strings.NewReader(payload))
	}, RetryPolicy{MaxAttempts: 3, Sleep: (&recordingSleeper{}).Sleep})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 2 || bodies[0] != payload || bodies[1] != payload {
		t.Fatalf("expected body on every attempt, got %q", bodies)
	}
}

func TestFetchWithRetry_StopsWhenContextCanceledDuringBackoff(t *testing.T) {
	t.Parallel()

	server, _ := statusServer(t, http.StatusBadGateway)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := FetchWithRetry(ctx, server.Client(), getRequest(server.URL), RetryPolicy{
		MaxAttempts: 3,
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return SleepContext(ctx, d)
		},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	if Backoff(1) != 2*time.Second || Backoff(2) != 4*time.Second || Backoff(3) != 8*time.Second {
		t.Fatalf("unexpected backoff schedule: %s %s %s", Backoff(1), Backoff(2), Backoff(3))
	}
}

func TestIsRetryableStatus(t *testing.T) {
	t.Parallel()

	for _, code := range []int{429, 500, 502, 503, 504} {
		if !IsRetryableStatus(code) {
			t.Fatalf("expected %d to be retryable", code)
		}
	}
	for _, code := range []int{400, 401, 404, 422, 501} {
		if IsRetryableStatus(code) {
			t.Fatalf("expected %d to be permanent", code)
		}
	}
}
