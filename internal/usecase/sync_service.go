package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/rawdata"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/platform/id"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/sourcegraph/conc/panics"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
)

// SourceAdapter fetches raw fixture documents from one upstream. Adapters
// log and skip partial failures; an error with no payloads means nothing
// could be fetched.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context) ([]fixture.RawPayload, error)
}

type Source struct {
	Adapter SourceAdapter
	Profile Profile
}

type SyncOptions struct {
	DryRun bool
}

type SyncReport struct {
	RunID          string
	Source         string
	DryRun         bool
	Status         syncrun.Status
	Fetched        int
	Normalized     int
	Rejected       map[RejectReason]int
	Duplicates     int
	Existing       int
	LookupFailures int
	ToCreate       int
	ToUpdate       int
	Created        int
	Updated        int
	FailedBatches  int
	FetchError     string
	StartedAt      time.Time
	FinishedAt     time.Time
}

func (r SyncReport) RejectedTotal() int {
	return NormalizeStats{Rejected: r.Rejected}.RejectedTotal()
}

type SyncService struct {
	normalizer *Normalizer
	resolver   *RemoteIndexResolver
	writer     *BatchedWriter
	runRepo    syncrun.Repository
	rawRepo    rawdata.Repository
	ids        id.Generator
	logger     *logging.Logger
	now        func() time.Time
}

// NewSyncService wires the pipeline. runRepo and rawRepo may be nil when no
// ledger is configured.
func NewSyncService(
	normalizer *Normalizer,
	resolver *RemoteIndexResolver,
	writer *BatchedWriter,
	runRepo syncrun.Repository,
	rawRepo rawdata.Repository,
	ids id.Generator,
	logger *logging.Logger,
) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	return &SyncService{
		normalizer: normalizer,
		resolver:   resolver,
		writer:     writer,
		runRepo:    runRepo,
		rawRepo:    rawRepo,
		ids:        ids,
		logger:     logger,
		now:        time.Now,
	}
}

// Run syncs one source: fetch, normalize, dedupe, resolve, plan, write.
// Remote failures end up in the report and the logs. The returned error is
// non-nil only when ctx is canceled.
func (s *SyncService) Run(ctx context.Context, source Source, opts SyncOptions) (SyncReport, error) {
	name := source.Adapter.Name()
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.Run",
		attribute.String("source", name),
		attribute.Bool("dry_run", opts.DryRun),
	)
	defer span.End()

	runID, err := s.ids.NewID()
	if err != nil {
		runID = fmt.Sprintf("%s-%d", name, s.now().UnixNano())
	}
	logger := s.logger.With("run_id", runID, "source", name)
	report := SyncReport{
		RunID:     runID,
		Source:    name,
		DryRun:    opts.DryRun,
		Status:    syncrun.StatusRunning,
		Rejected:  map[RejectReason]int{},
		StartedAt: s.now().UTC(),
	}
	s.startLedger(ctx, logger, report)

	payloads, err := source.Adapter.Fetch(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s.abort(ctx, logger, report, ctxErr)
		}
		report.FetchError = err.Error()
		if len(payloads) == 0 {
			logger.ErrorContext(ctx, "source fetch failed", "error", err)
			report.Status = syncrun.StatusFailed
			return s.finish(ctx, logger, report), nil
		}
		logger.WarnContext(ctx, "source fetch incomplete, continuing with what was fetched",
			"fetched", len(payloads),
			"error", err,
		)
	}
	report.Fetched = len(payloads)
	s.archive(ctx, logger, runID, source.Profile, payloads)

	records, normStats := s.normalizer.NormalizeAll(payloads, source.Profile)
	report.Normalized = normStats.Accepted
	report.Rejected = normStats.Rejected
	records, report.Duplicates = Dedupe(records)
	logger.InfoContext(ctx, "fixtures normalized",
		"fetched", report.Fetched,
		"normalized", report.Normalized,
		"rejected", rejectedByReason(report.Rejected),
		"duplicates", report.Duplicates,
	)
	if len(records) == 0 {
		report.Status = s.status(report)
		return s.finish(ctx, logger, report), nil
	}

	identities := make([]string, 0, len(records))
	for _, record := range records {
		identities = append(identities, record.Identity)
	}
	index, resolveStats, err := s.resolver.Resolve(ctx, identities)
	if err != nil {
		return s.abort(ctx, logger, report, err)
	}
	report.Existing = index.Len()
	report.LookupFailures = resolveStats.FailedChunks

	plan := PlanWrites(records, index)
	report.ToCreate = len(plan.Creates)
	report.ToUpdate = len(plan.Updates)
	logger.InfoContext(ctx, "write plan ready",
		"existing", report.Existing,
		"lookup_failures", report.LookupFailures,
		"to_create", report.ToCreate,
		"to_update", report.ToUpdate,
	)

	if opts.DryRun {
		report.Status = s.status(report)
		return s.finish(ctx, logger, report), nil
	}

	result, err := s.writer.Write(ctx, plan)
	report.Created = result.Created
	report.Updated = result.Updated
	report.FailedBatches = result.FailedBatches
	if err != nil {
		return s.abort(ctx, logger, report, err)
	}

	report.Status = s.status(report)
	return s.finish(ctx, logger, report), nil
}

// RunAll syncs sources one after another. A source that fails or panics is
// reported and the next one still runs.
func (s *SyncService) RunAll(ctx context.Context, sources []Source, opts SyncOptions) ([]SyncReport, error) {
	reports := make([]SyncReport, 0, len(sources))
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		var (
			report  SyncReport
			runErr  error
			catcher panics.Catcher
		)
		catcher.Try(func() {
			report, runErr = s.Run(ctx, source, opts)
		})
		if recovered := catcher.Recovered(); recovered != nil {
			s.logger.ErrorContext(ctx, "source sync panicked",
				"source", source.Adapter.Name(),
				"panic", recovered.Value,
				"stack", string(recovered.Stack),
			)
			now := s.now().UTC()
			report = SyncReport{
				Source:     source.Adapter.Name(),
				DryRun:     opts.DryRun,
				Status:     syncrun.StatusFailed,
				FetchError: recovered.String(),
				StartedAt:  now,
				FinishedAt: now,
			}
		}
		reports = append(reports, report)
		if runErr != nil {
			return reports, runErr
		}
	}
	return reports, nil
}

func (s *SyncService) status(report SyncReport) syncrun.Status {
	attempted := report.ToCreate + report.ToUpdate
	written := report.Created + report.Updated
	switch {
	case !report.DryRun && attempted > 0 && written == 0 && report.FailedBatches > 0:
		return syncrun.StatusFailed
	case report.FailedBatches > 0, report.LookupFailures > 0, report.FetchError != "":
		return syncrun.StatusPartial
	default:
		return syncrun.StatusSuccess
	}
}

func (s *SyncService) abort(ctx context.Context, logger *logging.Logger, report SyncReport, cause error) (SyncReport, error) {
	report.Status = syncrun.StatusFailed
	report.FetchError = cause.Error()
	// The run context is gone; the ledger still deserves the final row.
	report = s.finish(context.WithoutCancel(ctx), logger, report)
	return report, cause
}

func (s *SyncService) finish(ctx context.Context, logger *logging.Logger, report SyncReport) SyncReport {
	report.FinishedAt = s.now().UTC()
	logger.InfoContext(ctx, "sync run finished",
		"status", report.Status,
		"dry_run", report.DryRun,
		"fetched", report.Fetched,
		"normalized", report.Normalized,
		"rejected", report.RejectedTotal(),
		"duplicates", report.Duplicates,
		"existing", report.Existing,
		"to_create", report.ToCreate,
		"to_update", report.ToUpdate,
		"created", report.Created,
		"updated", report.Updated,
		"failed_batches", report.FailedBatches,
		"lookup_failures", report.LookupFailures,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)

	if s.runRepo != nil {
		if err := s.runRepo.Finish(ctx, ledgerRun(report)); err != nil {
			logger.WarnContext(ctx, "record sync run failed", "error", err)
		}
	}
	return report
}

func (s *SyncService) startLedger(ctx context.Context, logger *logging.Logger, report SyncReport) {
	if s.runRepo == nil {
		return
	}
	if err := s.runRepo.Start(ctx, ledgerRun(report)); err != nil {
		logger.WarnContext(ctx, "record sync run start failed", "error", err)
	}
}

func (s *SyncService) archive(ctx context.Context, logger *logging.Logger, runID string, profile Profile, payloads []fixture.RawPayload) {
	if s.rawRepo == nil || len(payloads) == 0 {
		return
	}

	fetchedAt := s.now().UTC()
	items := make([]rawdata.Payload, 0, len(payloads))
	for _, payload := range payloads {
		sum := sha256.Sum256(payload.Doc)
		hash := hex.EncodeToString(sum[:])
		key := profile.IDPath.lookup(gjson.ParseBytes(payload.Doc))
		if key == "" {
			key = "sha256:" + hash
		} else if profile.IDPrefix != "" {
			key = profile.IDPrefix + key
		}
		items = append(items, rawdata.Payload{
			RunID:       runID,
			Source:      payload.Source,
			EntityKey:   key,
			PayloadJSON: string(payload.Doc),
			PayloadHash: hash,
			FetchedAt:   fetchedAt,
		})
	}

	if err := s.rawRepo.UpsertMany(ctx, items); err != nil {
		logger.WarnContext(ctx, "archive raw payloads failed", "count", len(items), "error", err)
	}
}

func ledgerRun(report SyncReport) syncrun.Run {
	run := syncrun.Run{
		RunID:          report.RunID,
		Source:         report.Source,
		DryRun:         report.DryRun,
		Status:         report.Status,
		Fetched:        report.Fetched,
		Normalized:     report.Normalized,
		Rejected:       report.RejectedTotal(),
		Duplicates:     report.Duplicates,
		Existing:       report.Existing,
		LookupFailures: report.LookupFailures,
		ToCreate:       report.ToCreate,
		ToUpdate:       report.ToUpdate,
		Created:        report.Created,
		Updated:        report.Updated,
		FailedBatches:  report.FailedBatches,
		ErrorMessage:   report.FetchError,
		StartedAt:      report.StartedAt,
	}
	if !report.FinishedAt.IsZero() {
		finishedAt := report.FinishedAt
		run.FinishedAt = &finishedAt
	}
	return run
}

func rejectedByReason(rejected map[RejectReason]int) map[string]int {
	out := make(map[string]int, len(rejected))
	for reason, count := range rejected {
		out[string(reason)] = count
	}
	return out
}
