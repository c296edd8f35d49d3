package store

import (
	"sort"
	"sync"
	"time"

	"github.com/AngelCh415/finsnap/internal/models"
)

// Entry is the memoized outcome of loading one source. Table is nil when
// the source is absent; Status says why.
type Entry struct {
	Source     models.SourceID
	Table      *models.Table
	Status     string
	Hash       string // sha256 of the raw export, empty when the fetch failed
	Dropped    int
	Generation uint64
	LoadedAt   time.Time
}

type entryKey struct {
	source     models.SourceID
	generation uint64
}

// MemoryStore memoizes source loads per generation. Invalidate starts a
// new generation and forgets everything loaded before it.
type MemoryStore struct {
	mu         sync.RWMutex
	generation uint64
	entries    map[entryKey]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		generation: 1,
		entries:    make(map[entryKey]Entry),
	}
}

func (s *MemoryStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Get returns the entry for source in the current generation.
func (s *MemoryStore) Get(id models.SourceID) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[entryKey{id, s.generation}]
	return e, ok
}

// Put stores e under its own generation. Entries from a generation that
// has since been invalidated are discarded.
func (s *MemoryStore) Put(e Entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Generation != s.generation {
		return false
	}
	s.entries[entryKey{e.Source, e.Generation}] = e
	return true
}

// Invalidate bumps the generation and drops every memoized entry.
func (s *MemoryStore) Invalidate() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.entries = make(map[entryKey]Entry)
	return s.generation
}

// All returns the current generation's entries ordered by source id.
func (s *MemoryStore) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for k, v := range s.entries {
		if k.generation == s.generation {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}
