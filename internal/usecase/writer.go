package usecase

import (
	"context"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultWriteBatchSize = 10

type WriteResult struct {
	Created       int
	Updated       int
	CreateBatches int
	UpdateBatches int
	FailedBatches int
	// FailedRows counts plan entries in batches the store rejected.
	FailedRows int
}

// BatchedWriter applies a WritePlan in store-sized batches, creates first.
type BatchedWriter struct {
	store     fixture.RemoteStore
	batchSize int
	logger    *logging.Logger
}

func NewBatchedWriter(store fixture.RemoteStore, batchSize int, logger *logging.Logger) *BatchedWriter {
	if batchSize <= 0 {
		batchSize = DefaultWriteBatchSize
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BatchedWriter{store: store, batchSize: batchSize, logger: logger}
}

// Write counts only rows the store acknowledged. A failed batch is logged and
// the remaining batches still run; only context cancellation stops early.
func (w *BatchedWriter) Write(ctx context.Context, plan WritePlan) (WriteResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BatchedWriter.Write",
		attribute.Int("creates", len(plan.Creates)),
		attribute.Int("updates", len(plan.Updates)),
	)
	defer span.End()

	result := WriteResult{}

	for idx, batch := range chunk(plan.Creates, w.batchSize) {
		result.CreateBatches++
		rows, err := w.store.BatchCreate(ctx, batch)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				recordSpanError(span, ctxErr)
				return result, ctxErr
			}
			result.FailedBatches++
			result.FailedRows += len(batch)
			w.logger.WarnContext(ctx, "create batch failed, continuing",
				"batch", idx+1,
				"batch_size", len(batch),
				"first_fixture_id", batch[0].Fields.FixtureID,
				"error", err,
			)
			continue
		}
		result.Created += len(rows)
	}

	for idx, batch := range chunk(plan.Updates, w.batchSize) {
		result.UpdateBatches++
		rows, err := w.store.BatchUpdate(ctx, batch)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				recordSpanError(span, ctxErr)
				return result, ctxErr
			}
			result.FailedBatches++
			result.FailedRows += len(batch)
			w.logger.WarnContext(ctx, "update batch failed, continuing",
				"batch", idx+1,
				"batch_size", len(batch),
				"first_row_id", batch[0].RowID,
				"error", err,
			)
			continue
		}
		result.Updated += len(rows)
	}

	return result, nil
}
