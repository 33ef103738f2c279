package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday-sync/internal/domain/rawdata"
	qb "github.com/riskibarqy/matchday-sync/internal/platform/querybuilder"
)

const rawPayloadUpsertSuffix = `ON CONFLICT (source, entity_key)
DO UPDATE SET
    run_id = EXCLUDED.run_id,
    payload = EXCLUDED.payload,
    payload_hash = EXCLUDED.payload_hash,
    fetched_at = EXCLUDED.fetched_at,
    changed_at = CASE
        WHEN raw_payloads.payload_hash IS DISTINCT FROM EXCLUDED.payload_hash THEN EXCLUDED.fetched_at
        ELSE raw_payloads.changed_at
    END`

type RawDataRepository struct {
	db *sqlx.DB
}

func NewRawDataRepository(db *sqlx.DB) *RawDataRepository {
	return &RawDataRepository{db: db}
}

// UpsertMany archives payloads in one transaction, keeping the latest copy
// per source and entity key.
func (r *RawDataRepository) UpsertMany(ctx context.Context, items []rawdata.Payload) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert raw payloads: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range items {
		query, args, err := rawPayloadUpsertQuery(item)
		if err != nil {
			return fmt.Errorf("build upsert raw payload query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert raw payload source=%s key=%s: %w", item.Source, item.EntityKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert raw payloads tx: %w", err)
	}
	return nil
}

func rawPayloadUpsertQuery(item rawdata.Payload) (string, []any, error) {
	return qb.InsertModel("raw_payloads", rawPayloadInsertModel{
		RunID:       item.RunID,
		Source:      item.Source,
		EntityKey:   item.EntityKey,
		Payload:     item.PayloadJSON,
		PayloadHash: item.PayloadHash,
		FetchedAt:   item.FetchedAt,
		ChangedAt:   item.FetchedAt,
	}, rawPayloadUpsertSuffix)
}

type rawPayloadInsertModel struct {
	RunID       string    `db:"run_id"`
	Source      string    `db:"source"`
	EntityKey   string    `db:"entity_key"`
	Payload     string    `db:"payload"`
	PayloadHash string    `db:"payload_hash"`
	FetchedAt   time.Time `db:"fetched_at"`
	ChangedAt   time.Time `db:"changed_at"`
}
