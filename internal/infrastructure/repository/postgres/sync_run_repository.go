package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	qb "github.com/riskibarqy/matchday-sync/internal/platform/querybuilder"
)

var syncRunColumns = []string{
	"run_id", "source", "dry_run", "status",
	"fetched", "normalized", "rejected", "duplicates", "existing", "lookup_failures",
	"to_create", "to_update", "created", "updated", "failed_batches",
	"error_message", "started_at", "finished_at",
}

type SyncRunRepository struct {
	db *sqlx.DB
}

func NewSyncRunRepository(db *sqlx.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

func (r *SyncRunRepository) Start(ctx context.Context, run syncrun.Run) error {
	query, args, err := syncRunStartQuery(run)
	if err != nil {
		return fmt.Errorf("build insert sync run query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert sync run run_id=%s: %w", run.RunID, err)
	}
	return nil
}

func (r *SyncRunRepository) Finish(ctx context.Context, run syncrun.Run) error {
	query, args, err := syncRunFinishQuery(run)
	if err != nil {
		return fmt.Errorf("build finish sync run query: %w", err)
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("finish sync run run_id=%s: %w", run.RunID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		// Start never landed; write the whole row now.
		return r.Start(ctx, run)
	}
	return nil
}

func (r *SyncRunRepository) ListRecent(ctx context.Context, source string, limit int) ([]syncrun.Run, error) {
	query, args, err := syncRunListQuery(source, limit)
	if err != nil {
		return nil, fmt.Errorf("build list sync runs query: %w", err)
	}

	var rows []syncRunTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select sync runs: %w", err)
	}

	out := make([]syncrun.Run, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func syncRunStartQuery(run syncrun.Run) (string, []any, error) {
	return qb.InsertModel("sync_runs", syncRunInsertModel{
		RunID:          run.RunID,
		Source:         run.Source,
		DryRun:         run.DryRun,
		Status:         string(run.Status),
		Fetched:        run.Fetched,
		Normalized:     run.Normalized,
		Rejected:       run.Rejected,
		Duplicates:     run.Duplicates,
		Existing:       run.Existing,
		LookupFailures: run.LookupFailures,
		ToCreate:       run.ToCreate,
		ToUpdate:       run.ToUpdate,
		Created:        run.Created,
		Updated:        run.Updated,
		FailedBatches:  run.FailedBatches,
		ErrorMessage:   nullableString(run.ErrorMessage),
		StartedAt:      run.StartedAt.UTC(),
		FinishedAt:     run.FinishedAt,
	}, "ON CONFLICT (run_id) DO NOTHING")
}

func syncRunFinishQuery(run syncrun.Run) (string, []any, error) {
	finishedAt := time.Now().UTC()
	if run.FinishedAt != nil {
		finishedAt = run.FinishedAt.UTC()
	}
	return qb.Update("sync_runs").
		Set("status", string(run.Status)).
		Set("fetched", run.Fetched).
		Set("normalized", run.Normalized).
		Set("rejected", run.Rejected).
		Set("duplicates", run.Duplicates).
		Set("existing", run.Existing).
		Set("lookup_failures", run.LookupFailures).
		Set("to_create", run.ToCreate).
		Set("to_update", run.ToUpdate).
		Set("created", run.Created).
		Set("updated", run.Updated).
		Set("failed_batches", run.FailedBatches).
		Set("error_message", nullableString(run.ErrorMessage)).
		Set("finished_at", finishedAt).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("run_id", run.RunID)).
		ToSQL()
}

func syncRunListQuery(source string, limit int) (string, []any, error) {
	builder := qb.Select(syncRunColumns...).From("sync_runs")
	if source != "" {
		builder = builder.Where(qb.Eq("source", source))
	}
	return builder.OrderBy("started_at DESC", "run_id").Limit(limit).ToSQL()
}

type syncRunInsertModel struct {
	RunID          string     `db:"run_id"`
	Source         string     `db:"source"`
	DryRun         bool       `db:"dry_run"`
	Status         string     `db:"status"`
	Fetched        int        `db:"fetched"`
	Normalized     int        `db:"normalized"`
	Rejected       int        `db:"rejected"`
	Duplicates     int        `db:"duplicates"`
	Existing       int        `db:"existing"`
	LookupFailures int        `db:"lookup_failures"`
	ToCreate       int        `db:"to_create"`
	ToUpdate       int        `db:"to_update"`
	Created        int        `db:"created"`
	Updated        int        `db:"updated"`
	FailedBatches  int        `db:"failed_batches"`
	ErrorMessage   *string    `db:"error_message"`
	StartedAt      time.Time  `db:"started_at"`
	FinishedAt     *time.Time `db:"finished_at"`
}

type syncRunTableModel struct {
	RunID          string         `db:"run_id"`
	Source         string         `db:"source"`
	DryRun         bool           `db:"dry_run"`
	Status         string         `db:"status"`
	Fetched        int            `db:"fetched"`
	Normalized     int            `db:"normalized"`
	Rejected       int            `db:"rejected"`
	Duplicates     int            `db:"duplicates"`
	Existing       int            `db:"existing"`
	LookupFailures int            `db:"lookup_failures"`
	ToCreate       int            `db:"to_create"`
	ToUpdate       int            `db:"to_update"`
	Created        int            `db:"created"`
	Updated        int            `db:"updated"`
	FailedBatches  int            `db:"failed_batches"`
	ErrorMessage   sql.NullString `db:"error_message"`
	StartedAt      time.Time      `db:"started_at"`
	FinishedAt     sql.NullTime   `db:"finished_at"`
}

func (m syncRunTableModel) toDomain() syncrun.Run {
	return syncrun.Run{
		RunID:          m.RunID,
		Source:         m.Source,
		DryRun:         m.DryRun,
		Status:         syncrun.Status(m.Status),
		Fetched:        m.Fetched,
		Normalized:     m.Normalized,
		Rejected:       m.Rejected,
		Duplicates:     m.Duplicates,
		Existing:       m.Existing,
		LookupFailures: m.LookupFailures,
		ToCreate:       m.ToCreate,
		ToUpdate:       m.ToUpdate,
		Created:        m.Created,
		Updated:        m.Updated,
		FailedBatches:  m.FailedBatches,
		ErrorMessage:   m.ErrorMessage.String,
		StartedAt:      m.StartedAt.UTC(),
		FinishedAt:     nullTimePtr(m.FinishedAt),
	}
}
