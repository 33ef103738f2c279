package apifootball

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
)

const leagueResponse = `{
	"get": "fixtures",
	"response": [
		{"fixture": {"id": 1035001, "date": "2025-08-16T14:00:00+00:00", "venue": {"name": "Anfield"}},
		 "teams": {"home": {"name": "Liverpool"}, "away": {"name": "Bournemouth"}}},
		{"fixture": {"id": 1035002, "date": "2025-08-16T16:30:00+00:00", "venue": {"name": null}},
		 "teams": {"home": {"name": "Aston Villa"}, "away": {"name": "Newcastle"}}}
	]
}`

func noWait(_, _ time.Duration, _ int, _ *http.Response) time.Duration { return 0 }

func TestFetch_QueriesEachLeagueAndSkipsFailures(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		queries []url.Values
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/fixtures" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-rapidapi-key") != "rapid-key" {
			t.Errorf("missing rapidapi key header")
		}
		if r.Header.Get("x-rapidapi-host") == "" {
			t.Errorf("missing rapidapi host header")
		}
		mu.Lock()
		queries = append(queries, r.URL.Query())
		mu.Unlock()

		if r.URL.Query().Get("league") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"upstream down"}`))
			return
		}
		_, _ = w.Write([]byte(leagueResponse))
	}))
	defer server.Close()

	dublin, err := time.LoadLocation("Europe/Dublin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	logger := logging.NewNop()
	client := NewClient(ClientConfig{
		HTTPClient: resilience.NewRetryingHTTPClient(resilience.HTTPClientConfig{MaxRetries: 1, Logger: logger, Backoff: noWait}),
		BaseURL:    server.URL + "/v3/",
		APIKey:     "rapid-key",
		MaxRetries: 1,
		Leagues: []League{
			{ID: 39, Season: 2025, Sport: "EPL"},
			{ID: 2, Season: 2025, Sport: "UCL"},
		},
		DaysBehind: 3,
		DaysAhead:  30,
		Location:   dublin,
		Now:        func() time.Time { return time.Date(2025, 8, 10, 12, 0, 0, 0, dublin) },
		Logger:     logger,
	})

	payloads, err := client.Fetch(context.Background())
	if err == nil {
		t.Fatalf("expected the failing league to be reported")
	}
	if !strings.Contains(err.Error(), "league 2 season 2025") {
		t.Fatalf("error does not name the league: %v", err)
	}
	if len(payloads) != 2 {
		t.Fatalf("expected 2 payloads from the healthy league, got=%d", len(payloads))
	}
	if payloads[0].Label != "EPL" {
		t.Fatalf("expected league label EPL, got=%q", payloads[0].Label)
	}

	mu.Lock()
	defer mu.Unlock()
	// league 39 once, league 2 twice (one retry).
	if len(queries) != 3 {
		t.Fatalf("expected 3 requests, got=%d", len(queries))
	}
	first := queries[0]
	if first.Get("from") != "2025-08-07" || first.Get("to") != "2025-09-09" {
		t.Fatalf("unexpected window from=%s to=%s", first.Get("from"), first.Get("to"))
	}
	if first.Get("season") != "2025" || first.Get("timezone") != "Europe/Dublin" {
		t.Fatalf("unexpected query %v", first)
	}
}

func TestProfile_NormalizesFetchedDocument(t *testing.T) {
	t.Parallel()

	dublin, err := time.LoadLocation("Europe/Dublin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(leagueResponse))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		HTTPClient: server.Client(),
		BaseURL:    server.URL,
		Leagues:    []League{{ID: 39, Season: 2025, Sport: "EPL"}},
		Location:   dublin,
		Logger:     logging.NewNop(),
	})
	payloads, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	records, stats := usecase.NewNormalizer(dublin, nil).NormalizeAll(payloads, Profile())
	if stats.Accepted != 2 {
		t.Fatalf("expected 2 accepted, got=%d rejected=%v", stats.Accepted, stats.Rejected)
	}
	first := records[0]
	if first.Identity != "1035001" || first.Date != "2025-08-16" || first.Time != "15:00" {
		t.Fatalf("unexpected record %+v", first)
	}
	if first.Sport != "EPL" || first.Broadcast != "TBC" || first.Venue != "Anfield" {
		t.Fatalf("unexpected record %+v", first)
	}
	if records[1].Venue != "" {
		t.Fatalf("null venue should normalize to empty, got=%q", records[1].Venue)
	}
}
