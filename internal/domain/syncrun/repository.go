package syncrun

import "context"

type Repository interface {
	Start(ctx context.Context, run Run) error
	Finish(ctx context.Context, run Run) error
	// ListRecent returns runs newest first. An empty source matches all.
	ListRecent(ctx context.Context, source string, limit int) ([]Run, error)
}
