package store

import (
	"sync"
	"time"

	"github.com/i474232898/station-climate/internal/climate"
)

// tableEntry holds one cached table and when it was stored.
type tableEntry struct {
	key     climate.TableKey
	table   climate.Table
	savedAt time.Time
}

// MemoryStore is a concurrency-safe in-memory cache of aggregated tables.
// It implements climate.TableStore.
type MemoryStore struct {
	mu sync.RWMutex

	// key: table key string, value: entry
	data map[string]*tableEntry
	// insertion order, oldest first
	order []string

	// retention configuration
	maxEntries int           // max number of cached tables
	maxAge     time.Duration // optional max age of a cached table

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxEntries is <= 0, it is treated as unlimited.
func NewMemoryStore(maxEntries int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*tableEntry),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

func keyString(k climate.TableKey) string {
	return k.StationID + ":" + k.Start.String() + ":" + k.End.String()
}

// SaveTable stores a table and enforces retention.
func (s *MemoryStore) SaveTable(key climate.TableKey, table climate.Table) {
	k := keyString(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[k]; ok {
		s.removeLocked(k)
	}
	s.data[k] = &tableEntry{key: key, table: table, savedAt: s.now()}
	s.order = append(s.order, k)

	// Enforce retention by count.
	for s.maxEntries > 0 && len(s.order) > s.maxEntries {
		s.removeLocked(s.order[0])
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		for len(s.order) > 0 && s.data[s.order[0]].savedAt.Before(cutoff) {
			s.removeLocked(s.order[0])
		}
	}
}

// GetTable returns a cached table that has not expired.
func (s *MemoryStore) GetTable(key climate.TableKey) (climate.Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[keyString(key)]
	if !ok {
		return nil, false
	}
	if s.maxAge > 0 && s.now().Sub(e.savedAt) > s.maxAge {
		return nil, false
	}
	return e.table, true
}

// Invalidate drops every cached table of a station.
func (s *MemoryStore) Invalidate(stationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range s.data {
		if e.key.StationID == stationID {
			s.removeLocked(k)
		}
	}
}

// Len returns the number of cached tables.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) removeLocked(k string) {
	delete(s.data, k)
	for i, o := range s.order {
		if o == k {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
