package usecase

import (
	"context"
	"strings"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultLookupChunkSize = 50

// RemoteIndex maps identity to remote row handle. It is read-only once built.
type RemoteIndex struct {
	rows map[string]string
}

func NewRemoteIndex(rows map[string]string) RemoteIndex {
	copied := make(map[string]string, len(rows))
	for identity, rowID := range rows {
		copied[identity] = rowID
	}
	return RemoteIndex{rows: copied}
}

func (i RemoteIndex) Lookup(identity string) (string, bool) {
	rowID, ok := i.rows[identity]
	return rowID, ok
}

func (i RemoteIndex) Len() int {
	return len(i.rows)
}

type ResolveStats struct {
	Chunks         int
	Pages          int
	FailedChunks   int
	DuplicateRows  int
	MatchedRecords int
}

// RemoteIndexResolver finds which identities already have a remote row.
type RemoteIndexResolver struct {
	store     fixture.RemoteStore
	chunkSize int
	logger    *logging.Logger
}

func NewRemoteIndexResolver(store fixture.RemoteStore, chunkSize int, logger *logging.Logger) *RemoteIndexResolver {
	if chunkSize <= 0 {
		chunkSize = DefaultLookupChunkSize
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RemoteIndexResolver{store: store, chunkSize: chunkSize, logger: logger}
}

// Resolve looks identities up one chunk at a time, following continuation
// offsets. A failed chunk is logged and skipped, so its identities will be
// planned as creates; rows from pages received before the failure are kept.
// Only context cancellation is returned as an error.
func (r *RemoteIndexResolver) Resolve(ctx context.Context, identities []string) (RemoteIndex, ResolveStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RemoteIndexResolver.Resolve",
		attribute.Int("identities", len(identities)),
	)
	defer span.End()

	unique := uniqueIdentities(identities)
	rows := make(map[string]string, len(unique))
	stats := ResolveStats{}

	for idx, ids := range chunk(unique, r.chunkSize) {
		stats.Chunks++
		offset := ""
		for {
			page, err := r.store.Lookup(ctx, ids, offset)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					recordSpanError(span, ctxErr)
					return NewRemoteIndex(rows), stats, ctxErr
				}
				stats.FailedChunks++
				r.logger.WarnContext(ctx, "remote lookup failed, identities in chunk will be treated as new",
					"chunk", idx+1,
					"chunk_size", len(ids),
					"error", err,
				)
				break
			}
			stats.Pages++

			for _, row := range page.Rows {
				identity := strings.TrimSpace(row.FixtureID)
				if identity == "" || row.ID == "" {
					continue
				}
				if _, exists := rows[identity]; exists {
					stats.DuplicateRows++
					continue
				}
				rows[identity] = row.ID
			}

			next := strings.TrimSpace(page.Offset)
			if next == "" {
				break
			}
			if next == offset {
				r.logger.WarnContext(ctx, "remote lookup returned the same offset twice, stopping pagination",
					"chunk", idx+1,
					"offset", next,
				)
				break
			}
			offset = next
		}
	}

	if stats.DuplicateRows > 0 {
		r.logger.WarnContext(ctx, "remote store holds more than one row for some identities, first row kept",
			"duplicate_rows", stats.DuplicateRows,
		)
	}
	stats.MatchedRecords = len(rows)
	return NewRemoteIndex(rows), stats, nil
}

func uniqueIdentities(identities []string) []string {
	seen := make(map[string]struct{}, len(identities))
	out := make([]string, 0, len(identities))
	for _, identity := range identities {
		identity = strings.TrimSpace(identity)
		if identity == "" {
			continue
		}
		if _, ok := seen[identity]; ok {
			continue
		}
		seen[identity] = struct{}{}
		out = append(out, identity)
	}
	return out
}
