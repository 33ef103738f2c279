package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
)

const (
	GAAModeScrape = "scrape"
	GAAModeFile   = "file"
)

// ErrMissingSetting is returned by Require when a credential or path needed
// by the requested sources is not configured.
var ErrMissingSetting = errors.New("missing required setting")

// Config stores runtime configuration for the sync command.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	LogLevel       logging.Level
	LogFormat      logging.Format

	AirtableAPIKey    string
	AirtableBaseID    string
	AirtableTable     string
	AirtableBaseURL   string
	AirtableTimeout   time.Duration
	RemoteMaxAttempts int

	RapidAPIKey        string
	APIFootballBaseURL string
	RugbyBaseURL       string
	SourceTimeout      time.Duration
	SourceMaxRetries   int

	LocalTimezone string
	Location      *time.Location
	DaysAhead     int
	DaysBehind    int

	GAAMode        string
	GAAFixturesURL string
	GAAJSONFile    string

	SourcesFile string
	Sources     Sources

	LedgerEnabled               bool
	LedgerDBURL                 string
	LedgerDisablePreparedBinary bool

	UptraceEnabled         bool
	UptraceDSN             string
	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeUploadRate    time.Duration
}

// LoadDotEnv loads KEY=VALUE pairs from path without overriding variables that
// are already set. An empty path means ./.env when present.
func LoadDotEnv(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	logLevel, err := logging.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	logFormat := logging.FormatJSON
	if appEnv == EnvDev {
		logFormat = logging.FormatConsole
	}
	if raw := strings.TrimSpace(getEnv("LOG_FORMAT", "")); raw != "" {
		logFormat, err = parseLogFormat(raw)
		if err != nil {
			return Config{}, err
		}
	}

	airtableTimeout, err := time.ParseDuration(getEnv("AIRTABLE_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse AIRTABLE_TIMEOUT: %w", err)
	}
	if airtableTimeout <= 0 {
		return Config{}, fmt.Errorf("AIRTABLE_TIMEOUT must be > 0")
	}
	remoteMaxAttempts, err := getEnvAsInt("REMOTE_MAX_ATTEMPTS", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse REMOTE_MAX_ATTEMPTS: %w", err)
	}
	if remoteMaxAttempts <= 0 {
		return Config{}, fmt.Errorf("REMOTE_MAX_ATTEMPTS must be > 0")
	}

	sourceTimeout, err := time.ParseDuration(getEnv("SOURCE_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SOURCE_TIMEOUT: %w", err)
	}
	if sourceTimeout <= 0 {
		return Config{}, fmt.Errorf("SOURCE_TIMEOUT must be > 0")
	}
	sourceMaxRetries, err := getEnvAsInt("SOURCE_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse SOURCE_MAX_RETRIES: %w", err)
	}
	if sourceMaxRetries < 0 {
		return Config{}, fmt.Errorf("SOURCE_MAX_RETRIES must be >= 0")
	}

	timezone := strings.TrimSpace(getEnv("LOCAL_TIMEZONE", "Europe/Dublin"))
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return Config{}, fmt.Errorf("parse LOCAL_TIMEZONE: %w", err)
	}
	daysAhead, err := getEnvAsInt("DAYS_AHEAD", 30)
	if err != nil {
		return Config{}, fmt.Errorf("parse DAYS_AHEAD: %w", err)
	}
	daysBehind, err := getEnvAsInt("DAYS_BEHIND", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse DAYS_BEHIND: %w", err)
	}
	if daysAhead < 0 || daysBehind < 0 {
		return Config{}, fmt.Errorf("DAYS_AHEAD and DAYS_BEHIND must be >= 0")
	}

	gaaMode := strings.ToLower(strings.TrimSpace(getEnv("GAA_MODE", GAAModeScrape)))
	if gaaMode != GAAModeScrape && gaaMode != GAAModeFile {
		return Config{}, fmt.Errorf("invalid GAA_MODE %q: valid values are %s, %s", gaaMode, GAAModeScrape, GAAModeFile)
	}

	sourcesFile := strings.TrimSpace(getEnv("SOURCES_FILE", ""))
	sources := DefaultSources()
	if sourcesFile != "" {
		sources, err = LoadSources(sourcesFile)
		if err != nil {
			return Config{}, err
		}
	}

	ledgerEnabled, err := strconv.ParseBool(getEnv("LEDGER_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEDGER_ENABLED: %w", err)
	}
	ledgerDBURL := strings.TrimSpace(getEnv("LEDGER_DB_URL", ""))
	if ledgerEnabled && ledgerDBURL == "" {
		return Config{}, fmt.Errorf("LEDGER_DB_URL is required when LEDGER_ENABLED=true")
	}
	ledgerDisablePreparedBinary, err := strconv.ParseBool(getEnv("LEDGER_DISABLE_PREPARED_BINARY_RESULT", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEDGER_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}

	serviceName := getEnv("APP_SERVICE_NAME", "matchday-sync")

	return Config{
		AppEnv:                      appEnv,
		ServiceName:                 serviceName,
		ServiceVersion:              getEnv("APP_SERVICE_VERSION", "dev"),
		LogLevel:                    logLevel,
		LogFormat:                   logFormat,
		AirtableAPIKey:              strings.TrimSpace(getEnv("AIRTABLE_API_KEY", "")),
		AirtableBaseID:              strings.TrimSpace(getEnv("AIRTABLE_BASE_ID", "")),
		AirtableTable:               strings.TrimSpace(getEnv("AIRTABLE_TABLE_NAME", "Fixtures")),
		AirtableBaseURL:             strings.TrimSpace(getEnv("AIRTABLE_BASE_URL", "https://api.airtable.com/v0")),
		AirtableTimeout:             airtableTimeout,
		RemoteMaxAttempts:           remoteMaxAttempts,
		RapidAPIKey:                 strings.TrimSpace(getEnv("RAPIDAPI_KEY", "")),
		APIFootballBaseURL:          strings.TrimSpace(getEnv("API_FOOTBALL_BASE_URL", "https://api-football-v1.p.rapidapi.com/v3")),
		RugbyBaseURL:                strings.TrimSpace(getEnv("RUGBY_BASE_URL", "https://rugby-live-data.p.rapidapi.com")),
		SourceTimeout:               sourceTimeout,
		SourceMaxRetries:            sourceMaxRetries,
		LocalTimezone:               timezone,
		Location:                    location,
		DaysAhead:                   daysAhead,
		DaysBehind:                  daysBehind,
		GAAMode:                     gaaMode,
		GAAFixturesURL:              strings.TrimSpace(getEnv("GAA_FIXTURES_URL", "https://www.gaa.ie/fixtures-results")),
		GAAJSONFile:                 strings.TrimSpace(getEnv("GAA_JSON_FILE", "")),
		SourcesFile:                 sourcesFile,
		Sources:                     sources,
		LedgerEnabled:               ledgerEnabled,
		LedgerDBURL:                 ledgerDBURL,
		LedgerDisablePreparedBinary: ledgerDisablePreparedBinary,
		UptraceEnabled:              uptraceEnabled,
		UptraceDSN:                  uptraceDSN,
		PyroscopeEnabled:            pyroscopeEnabled,
		PyroscopeServerAddress:      pyroscopeServerAddress,
		PyroscopeAppName:            getEnv("PYROSCOPE_APP_NAME", serviceName),
		PyroscopeUploadRate:         pyroscopeUploadRate,
	}, nil
}

// Require checks the settings the given sources depend on. The remote store
// credentials are always required.
func (c Config) Require(sources ...string) error {
	missing := missingSettings(remoteRequirements{
		AirtableAPIKey: c.AirtableAPIKey,
		AirtableBaseID: c.AirtableBaseID,
		AirtableTable:  c.AirtableTable,
	})

	needRapidAPI := false
	for _, source := range sources {
		switch source {
		case fixture.SourceFootball, fixture.SourceRugby:
			needRapidAPI = true
		case fixture.SourceGAA:
			if c.GAAMode == GAAModeFile {
				missing = append(missing, missingSettings(gaaFileRequirements{GAAJSONFile: c.GAAJSONFile})...)
			}
		default:
			return fmt.Errorf("unknown source %q", source)
		}
	}
	if needRapidAPI {
		missing = append(missing, missingSettings(rapidAPIRequirements{RapidAPIKey: c.RapidAPIKey})...)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogFormat(v string) (logging.Format, error) {
	switch logging.Format(strings.ToLower(strings.TrimSpace(v))) {
	case logging.FormatJSON:
		return logging.FormatJSON, nil
	case logging.FormatConsole:
		return logging.FormatConsole, nil
	default:
		return "", fmt.Errorf("invalid LOG_FORMAT %q: valid values are %s, %s", v, logging.FormatJSON, logging.FormatConsole)
	}
}
