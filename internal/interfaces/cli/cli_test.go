package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/riskibarqy/matchday-sync/internal/app"
	"github.com/riskibarqy/matchday-sync/internal/config"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
)

// chdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Errorf("restore working directory: %v", err)
		}
	})
}

// baseEnv pins every setting the tests depend on so a developer's .env or
// shell cannot leak in.
func baseEnv(t *testing.T) {
	t.Helper()
	chdir(t, t.TempDir())
	for key, value := range map[string]string{
		"APP_ENV":             config.EnvDev,
		"LOG_LEVEL":           "error",
		"AIRTABLE_API_KEY":    "",
		"AIRTABLE_BASE_ID":    "",
		"RAPIDAPI_KEY":        "",
		"SOURCES_FILE":        "",
		"GAA_MODE":            config.GAAModeScrape,
		"LEDGER_ENABLED":      "false",
		"UPTRACE_ENABLED":     "false",
		"PYROSCOPE_ENABLED":   "false",
		"SOURCE_MAX_RETRIES":  "0",
		"REMOTE_MAX_ATTEMPTS": "1",
	} {
		t.Setenv(key, value)
	}
}

func newTestCommand(out *bytes.Buffer, newApp func(context.Context, config.Config, *logging.Logger) (*app.App, error)) *command {
	return &command{out: out, newApp: newApp}
}

func TestSync_MissingCredentialsFailsBeforeAnyRemoteCall(t *testing.T) {
	baseEnv(t)

	var out bytes.Buffer
	c := newTestCommand(&out, func(context.Context, config.Config, *logging.Logger) (*app.App, error) {
		t.Fatalf("app must not be built when settings are missing")
		return nil, nil
	})
	root := c.root()
	root.SetArgs([]string{"sync", "football"})

	err := root.ExecuteContext(context.Background())
	if !errors.Is(err, usecase.ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition, got=%v", err)
	}
	for _, key := range []string{"AIRTABLE_API_KEY", "AIRTABLE_BASE_ID", "RAPIDAPI_KEY"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s in error, got=%v", key, err)
		}
	}
}

func TestSync_RejectsUnknownTarget(t *testing.T) {
	baseEnv(t)

	var out, errOut bytes.Buffer
	code := Execute(context.Background(), []string{"sync", "cricket"}, &out, &errOut)
	if code != 1 {
		t.Fatalf("expected exit code 1, got=%d", code)
	}
	if !strings.Contains(errOut.String(), "cricket") {
		t.Fatalf("expected target in error output, got=%q", errOut.String())
	}
}

func TestSync_DryRunAgainstFakeRemotes(t *testing.T) {
	baseEnv(t)

	var writes atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v3/fixtures":
			_, _ = w.Write([]byte(`{"response":[
				{"fixture":{"id":1035001,"date":"2025-08-16T14:00:00+00:00","venue":{"name":"Anfield"}},
				 "teams":{"home":{"name":"Liverpool"},"away":{"name":"Bournemouth"}}}
			]}`))
		case r.URL.Path == "/v0/appTest/Fixtures" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"records":[]}`))
		default:
			writes.Add(1)
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer server.Close()

	t.Setenv("AIRTABLE_API_KEY", "key")
	t.Setenv("AIRTABLE_BASE_ID", "appTest")
	t.Setenv("AIRTABLE_BASE_URL", server.URL+"/v0")
	t.Setenv("RAPIDAPI_KEY", "rapid")
	t.Setenv("API_FOOTBALL_BASE_URL", server.URL+"/v3")

	var out, errOut bytes.Buffer
	code := Execute(context.Background(), []string{"sync", "football", "--dry-run"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got=%d stderr=%q", code, errOut.String())
	}
	if writes.Load() != 0 {
		t.Fatalf("dry run must not write, got %d write requests", writes.Load())
	}

	line := out.String()
	for _, want := range []string{"football status=success dry_run=true", "fetched=4", "duplicates=3", "created=0/1"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in output %q", want, line)
		}
	}
}

func TestSync_FailedSourceStillExitsZero(t *testing.T) {
	baseEnv(t)

	var lookups atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v0/") {
			lookups.Add(1)
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	t.Setenv("AIRTABLE_API_KEY", "key")
	t.Setenv("AIRTABLE_BASE_ID", "appTest")
	t.Setenv("AIRTABLE_BASE_URL", server.URL+"/v0")
	t.Setenv("RAPIDAPI_KEY", "rapid")
	t.Setenv("API_FOOTBALL_BASE_URL", server.URL+"/v3")

	var out, errOut bytes.Buffer
	code := Execute(context.Background(), []string{"sync", "football"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0 for a failed source, got=%d stderr=%q", code, errOut.String())
	}
	if !strings.Contains(out.String(), "football status=failed") {
		t.Fatalf("expected failed status in output %q", out.String())
	}
	if lookups.Load() != 0 {
		t.Fatalf("expected no Airtable calls after an empty fetch, got=%d", lookups.Load())
	}
}

func TestSources_ListsDefaults(t *testing.T) {
	baseEnv(t)

	var out, errOut bytes.Buffer
	if code := Execute(context.Background(), []string{"sources"}, &out, &errOut); code != 0 {
		t.Fatalf("expected exit code 0, got=%d stderr=%q", code, errOut.String())
	}
	text := out.String()
	for _, want := range []string{"SOURCE", "EPL", "Champions Cup", "*hurling*", "Hurling", "(default, mode=scrape)"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
}

func TestRuns_RequiresLedger(t *testing.T) {
	baseEnv(t)

	var out bytes.Buffer
	root := newTestCommand(&out, app.New).root()
	root.SetArgs([]string{"runs", "--limit", "5"})

	err := root.ExecuteContext(context.Background())
	if !errors.Is(err, usecase.ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition, got=%v", err)
	}
}

func TestLogLevelFlagOverridesEnvironment(t *testing.T) {
	baseEnv(t)

	c := newTestCommand(&bytes.Buffer{}, app.New)
	c.opts.logLevel = "debug"
	cfg, _, err := c.loadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogLevel != logging.LevelDebug {
		t.Fatalf("expected debug level, got=%v", cfg.LogLevel)
	}

	c.opts.logLevel = "loud"
	if _, _, err := c.loadConfig(); err == nil {
		t.Fatalf("expected invalid level error")
	}
}
