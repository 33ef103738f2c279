package usecase

import "github.com/riskibarqy/matchday-sync/internal/domain/fixture"

// Dedupe keeps the first record seen for each identity, in input order.
// Later duplicates are dropped whole; fields are never merged.
func Dedupe(records []fixture.Record) ([]fixture.Record, int) {
	seen := make(map[string]struct{}, len(records))
	kept := make([]fixture.Record, 0, len(records))
	for _, record := range records {
		if _, ok := seen[record.Identity]; ok {
			continue
		}
		seen[record.Identity] = struct{}{}
		kept = append(kept, record)
	}
	return kept, len(records) - len(kept)
}
