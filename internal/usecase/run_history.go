package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// RunHistory reads past runs back from the ledger.
type RunHistory struct {
	repo syncrun.Repository
}

func NewRunHistory(repo syncrun.Repository) *RunHistory {
	return &RunHistory{repo: repo}
}

func (h *RunHistory) Recent(ctx context.Context, source string, limit int) ([]syncrun.Run, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RunHistory.Recent",
		attribute.String("source", source),
		attribute.Int("limit", limit),
	)
	defer span.End()

	if h == nil || h.repo == nil {
		return nil, fmt.Errorf("%w: run ledger is not enabled", ErrPrecondition)
	}

	source = strings.ToLower(strings.TrimSpace(source))
	switch source {
	case "", fixture.SourceFootball, fixture.SourceRugby, fixture.SourceGAA:
	default:
		return nil, fmt.Errorf("%w: unknown source %q", ErrInvalidInput, source)
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return nil, fmt.Errorf("%w: limit must be at most %d", ErrInvalidInput, maxHistoryLimit)
	}

	runs, err := h.repo.ListRecent(ctx, source, limit)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("%w: list sync runs: %v", ErrDependencyUnavailable, err)
	}
	return runs, nil
}
