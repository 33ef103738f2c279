package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/matchday-sync/external/apifootball"
	"github.com/riskibarqy/matchday-sync/external/gaa"
	"github.com/riskibarqy/matchday-sync/external/rugbylive"
	"github.com/riskibarqy/matchday-sync/internal/config"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/rawdata"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/infrastructure/airtable"
	"github.com/riskibarqy/matchday-sync/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/matchday-sync/internal/observability"
	"github.com/riskibarqy/matchday-sync/internal/platform/id"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const ledgerPingTimeout = 5 * time.Second

// App holds everything one command invocation needs.
type App struct {
	Config  config.Config
	Logger  *logging.Logger
	Sync    *usecase.SyncService
	History *usecase.RunHistory

	sources map[string]usecase.Source
	closers []func(context.Context) error
}

// New wires the pipeline from cfg. It makes no remote calls other than
// pinging the ledger database when the ledger is enabled.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init uptrace: %w", err)
	}
	a.closers = append(a.closers, shutdownUptrace)

	stopPyroscope, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("init pyroscope: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return stopPyroscope() })

	var (
		runRepo syncrun.Repository
		rawRepo rawdata.Repository
	)
	if cfg.LedgerEnabled {
		db, err := openLedger(ctx, cfg)
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		runRepo = postgres.NewSyncRunRepository(db)
		rawRepo = postgres.NewRawDataRepository(db)
		logger.Info("sync ledger enabled", "db_name", dbNameFromURL(cfg.LedgerDBURL))
	}

	store := airtable.NewClient(airtable.ClientConfig{
		BaseURL:     cfg.AirtableBaseURL,
		APIKey:      cfg.AirtableAPIKey,
		BaseID:      cfg.AirtableBaseID,
		Table:       cfg.AirtableTable,
		Timeout:     cfg.AirtableTimeout,
		MaxAttempts: cfg.RemoteMaxAttempts,
		Logger:      logger.With("component", "airtable"),
	})

	a.Sync = usecase.NewSyncService(
		usecase.NewNormalizer(cfg.Location, nil),
		usecase.NewRemoteIndexResolver(store, usecase.DefaultLookupChunkSize, logger),
		usecase.NewBatchedWriter(store, airtable.MaxRecordsPerRequest, logger),
		runRepo,
		rawRepo,
		id.NewUUIDGenerator(),
		logger,
	)
	a.History = usecase.NewRunHistory(runRepo)
	a.sources = buildSources(cfg, logger)

	return a, nil
}

// Sources returns the configured sources for names, in the order given.
func (a *App) Sources(names ...string) ([]usecase.Source, error) {
	out := make([]usecase.Source, 0, len(names))
	for _, name := range names {
		source, ok := a.sources[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown source %q", usecase.ErrInvalidInput, name)
		}
		out = append(out, source)
	}
	return out, nil
}

// Close flushes telemetry and releases the ledger connection, newest first.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func buildSources(cfg config.Config, logger *logging.Logger) map[string]usecase.Source {
	httpClient := resilience.NewRetryingHTTPClient(resilience.HTTPClientConfig{
		Timeout:    cfg.SourceTimeout,
		MaxRetries: cfg.SourceMaxRetries,
		Logger:     logger.With("component", "source_http"),
	})

	leagues := make([]apifootball.League, 0, len(cfg.Sources.Football))
	for _, l := range cfg.Sources.Football {
		leagues = append(leagues, apifootball.League{ID: l.ID, Season: l.Season, Sport: l.Sport})
	}
	competitions := make([]rugbylive.Competition, 0, len(cfg.Sources.Rugby))
	for _, c := range cfg.Sources.Rugby {
		competitions = append(competitions, rugbylive.Competition{ID: c.ID, Season: c.Season, Name: c.Name, Sport: c.Sport})
	}
	rules := make([]usecase.SportRule, 0, len(cfg.Sources.GAA.Rules))
	for _, r := range cfg.Sources.GAA.Rules {
		rules = append(rules, usecase.SportRule{Contains: r.Contains, Label: r.Label})
	}

	return map[string]usecase.Source{
		fixture.SourceFootball: {
			Adapter: apifootball.NewClient(apifootball.ClientConfig{
				HTTPClient: httpClient,
				BaseURL:    cfg.APIFootballBaseURL,
				APIKey:     cfg.RapidAPIKey,
				MaxRetries: cfg.SourceMaxRetries,
				Leagues:    leagues,
				DaysBehind: cfg.DaysBehind,
				DaysAhead:  cfg.DaysAhead,
				Location:   cfg.Location,
				Logger:     logger,
			}),
			Profile: apifootball.Profile(),
		},
		fixture.SourceRugby: {
			Adapter: rugbylive.NewClient(rugbylive.ClientConfig{
				HTTPClient:   httpClient,
				BaseURL:      cfg.RugbyBaseURL,
				APIKey:       cfg.RapidAPIKey,
				MaxRetries:   cfg.SourceMaxRetries,
				Competitions: competitions,
				Logger:       logger,
			}),
			Profile: rugbylive.Profile(cfg.DaysAhead),
		},
		fixture.SourceGAA: {
			Adapter: gaaAdapter(cfg, httpClient, logger),
			Profile: gaa.Profile(rules, cfg.Sources.GAA.DefaultSport),
		},
	}
}

func gaaAdapter(cfg config.Config, httpClient *http.Client, logger *logging.Logger) usecase.SourceAdapter {
	if cfg.GAAMode == config.GAAModeFile {
		return gaa.NewFileLoader(cfg.GAAJSONFile, logger)
	}
	return gaa.NewScraper(gaa.ScraperConfig{
		HTTPClient:  httpClient,
		FixturesURL: cfg.GAAFixturesURL,
		MaxRetries:  cfg.SourceMaxRetries,
		Logger:      logger,
	})
}

func openLedger(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.LedgerDBURL, cfg.LedgerDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetConnMaxIdleTime(time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, ledgerPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping ledger db: %v", usecase.ErrDependencyUnavailable, err)
	}
	return db, nil
}
