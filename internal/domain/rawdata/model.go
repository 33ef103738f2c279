package rawdata

import "time"

// Payload is one source document archived verbatim before normalization.
type Payload struct {
	RunID       string
	Source      string
	EntityKey   string
	PayloadJSON string
	PayloadHash string
	FetchedAt   time.Time
}
