package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.AirtableTable != "Fixtures" {
		t.Fatalf("unexpected table: %q", cfg.AirtableTable)
	}
	if cfg.RemoteMaxAttempts != 3 {
		t.Fatalf("unexpected RemoteMaxAttempts: %d", cfg.RemoteMaxAttempts)
	}
	if cfg.Location == nil || cfg.Location.String() != "Europe/Dublin" {
		t.Fatalf("unexpected location: %v", cfg.Location)
	}
	if cfg.DaysAhead != 30 || cfg.DaysBehind != 3 {
		t.Fatalf("unexpected window: ahead=%d behind=%d", cfg.DaysAhead, cfg.DaysBehind)
	}
	if cfg.GAAMode != GAAModeScrape {
		t.Fatalf("unexpected GAA mode: %q", cfg.GAAMode)
	}
	if cfg.LogFormat != logging.FormatConsole {
		t.Fatalf("expected console logs in dev, got %q", cfg.LogFormat)
	}
	if len(cfg.Sources.Football) != 4 || len(cfg.Sources.Rugby) != 3 {
		t.Fatalf("unexpected default sources: %+v", cfg.Sources)
	}
}

func TestLoad_ProdUsesJSONLogs(t *testing.T) {
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogFormat != logging.FormatJSON || cfg.LogLevel != logging.LevelWarn {
		t.Fatalf("unexpected logging config: format=%q level=%s", cfg.LogFormat, cfg.LogLevel)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"LOCAL_TIMEZONE":      "Mars/Olympus",
		"REMOTE_MAX_ATTEMPTS": "0",
		"AIRTABLE_TIMEOUT":    "soon",
		"GAA_MODE":            "carrier-pigeon",
		"DAYS_AHEAD":          "-1",
		"LOG_LEVEL":           "loud",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("APP_ENV", EnvDev)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}

func TestLoad_LedgerRequiresURLWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("LEDGER_ENABLED", "true")
	t.Setenv("LEDGER_DB_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when LEDGER_ENABLED=true without LEDGER_DB_URL")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_Durations(t *testing.T) {
	t.Setenv("APP_ENV", EnvStage)
	t.Setenv("AIRTABLE_TIMEOUT", "12s")
	t.Setenv("SOURCE_TIMEOUT", "45s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.AirtableTimeout != 12*time.Second || cfg.SourceTimeout != 45*time.Second {
		t.Fatalf("unexpected timeouts: airtable=%s source=%s", cfg.AirtableTimeout, cfg.SourceTimeout)
	}
}

func TestLoadDotEnv_DoesNotOverrideExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sync.env")
	content := "AIRTABLE_BASE_ID=from-file\nMATCHDAY_TEST_ONLY_IN_FILE=yes\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("AIRTABLE_BASE_ID", "from-env")
	t.Setenv("MATCHDAY_TEST_ONLY_IN_FILE", "")
	_ = os.Unsetenv("MATCHDAY_TEST_ONLY_IN_FILE")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("AIRTABLE_BASE_ID"); got != "from-env" {
		t.Fatalf("existing variable overridden: %q", got)
	}
	if got := os.Getenv("MATCHDAY_TEST_ONLY_IN_FILE"); got != "yes" {
		t.Fatalf("expected variable from file, got %q", got)
	}
}

func TestLoadDotEnv_MissingExplicitFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Fatalf("expected error for missing env file")
	}
}

func TestRequire(t *testing.T) {
	t.Parallel()

	full := Config{
		AirtableAPIKey: "key",
		AirtableBaseID: "app123",
		AirtableTable:  "Fixtures",
		RapidAPIKey:    "rapid",
		GAAMode:        GAAModeScrape,
	}

	t.Run("all present", func(t *testing.T) {
		t.Parallel()
		if err := full.Require("football", "rugby", "gaa"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("gaa scrape does not need rapidapi", func(t *testing.T) {
		t.Parallel()
		cfg := full
		cfg.RapidAPIKey = ""
		if err := cfg.Require("gaa"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("names every missing variable", func(t *testing.T) {
		t.Parallel()
		cfg := full
		cfg.AirtableAPIKey = ""
		cfg.RapidAPIKey = ""
		err := cfg.Require("football")
		if !errors.Is(err, ErrMissingSetting) {
			t.Fatalf("expected ErrMissingSetting, got %v", err)
		}
		if !strings.Contains(err.Error(), "AIRTABLE_API_KEY") || !strings.Contains(err.Error(), "RAPIDAPI_KEY") {
			t.Fatalf("expected env names in error, got %v", err)
		}
	})

	t.Run("gaa file mode needs a path", func(t *testing.T) {
		t.Parallel()
		cfg := full
		cfg.GAAMode = GAAModeFile
		err := cfg.Require("gaa")
		if err == nil || !strings.Contains(err.Error(), "GAA_JSON_FILE") {
			t.Fatalf("expected GAA_JSON_FILE in error, got %v", err)
		}
	})

	t.Run("unknown source", func(t *testing.T) {
		t.Parallel()
		if err := full.Require("cricket"); err == nil {
			t.Fatalf("expected error for unknown source")
		}
	})
}
