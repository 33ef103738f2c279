package syncrun

import "time"

type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Run is the ledger entry of one source sync.
type Run struct {
	RunID          string
	Source         string
	DryRun         bool
	Status         Status
	Fetched        int
	Normalized     int
	Rejected       int
	Duplicates     int
	Existing       int
	LookupFailures int
	ToCreate       int
	ToUpdate       int
	Created        int
	Updated        int
	FailedBatches  int
	ErrorMessage   string
	StartedAt      time.Time
	FinishedAt     *time.Time
}
