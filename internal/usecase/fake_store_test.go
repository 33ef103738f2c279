package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
)

// memoryStore is a stateful RemoteStore double that behaves like the real
// table: creates allocate row ids, updates merge the supplied columns.
type memoryStore struct {
	mu       sync.Mutex
	pageSize int
	nextID   int
	rows     map[string]fixture.Fields
	order    []string

	lookupSizes []int
	createSizes []int
	updateSizes []int
	failLookup  map[int]error
	failCreate  map[int]error
	lookupCalls int
	createCalls int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{pageSize: 100, rows: map[string]fixture.Fields{}}
}

func (s *memoryStore) seed(fields fixture.Fields) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(fields)
}

func (s *memoryStore) insertLocked(fields fixture.Fields) string {
	s.nextID++
	rowID := fmt.Sprintf("rec%04d", s.nextID)
	s.rows[rowID] = fields
	s.order = append(s.order, rowID)
	return rowID
}

func (s *memoryStore) Lookup(_ context.Context, identities []string, offset string) (fixture.LookupPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lookupCalls++
	if err := s.failLookup[s.lookupCalls]; err != nil {
		return fixture.LookupPage{}, err
	}
	if offset == "" {
		s.lookupSizes = append(s.lookupSizes, len(identities))
	}

	wanted := make(map[string]struct{}, len(identities))
	for _, identity := range identities {
		wanted[identity] = struct{}{}
	}
	var matches []fixture.RemoteRow
	for _, rowID := range s.order {
		fields := s.rows[rowID]
		if _, ok := wanted[fields.FixtureID]; ok {
			matches = append(matches, fixture.RemoteRow{ID: rowID, FixtureID: fields.FixtureID})
		}
	}

	start := 0
	if offset != "" {
		start, _ = strconv.Atoi(offset)
	}
	end := min(start+s.pageSize, len(matches))
	page := fixture.LookupPage{Rows: matches[start:end]}
	if end < len(matches) {
		page.Offset = strconv.Itoa(end)
	}
	return page, nil
}

func (s *memoryStore) BatchCreate(_ context.Context, plans []fixture.CreatePlan) ([]fixture.RemoteRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.createCalls++
	s.createSizes = append(s.createSizes, len(plans))
	if err := s.failCreate[s.createCalls]; err != nil {
		return nil, err
	}
	out := make([]fixture.RemoteRow, 0, len(plans))
	for _, plan := range plans {
		rowID := s.insertLocked(plan.Fields)
		out = append(out, fixture.RemoteRow{ID: rowID, FixtureID: plan.Fields.FixtureID})
	}
	return out, nil
}

func (s *memoryStore) BatchUpdate(_ context.Context, plans []fixture.UpdatePlan) ([]fixture.RemoteRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updateSizes = append(s.updateSizes, len(plans))
	out := make([]fixture.RemoteRow, 0, len(plans))
	for _, plan := range plans {
		current, ok := s.rows[plan.RowID]
		if !ok {
			continue
		}
		next := plan.Fields
		if next.TV == nil {
			next.TV = current.TV
		}
		s.rows[plan.RowID] = next
		out = append(out, fixture.RemoteRow{ID: plan.RowID, FixtureID: next.FixtureID})
	}
	return out, nil
}

// byIdentity returns rows grouped by FixtureID, sorted by row id.
func (s *memoryStore) byIdentity() map[string][]fixture.Fields {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := append([]string(nil), s.order...)
	sort.Strings(ids)
	out := make(map[string][]fixture.Fields, len(ids))
	for _, rowID := range ids {
		fields := s.rows[rowID]
		out[fields.FixtureID] = append(out[fields.FixtureID], fields)
	}
	return out
}
