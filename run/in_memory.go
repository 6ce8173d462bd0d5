package run

import (
	"sort"
	"sync"

	"github.com/hupe1980/cimesh/core"
)

// InMemoryStore is a volatile RunStore implementation keeping archived
// pipeline runs in a process local map. It is safe for concurrent access and
// best suited for tests, the CLI and ephemeral setups. Each stored and
// returned run is cloned to prevent external mutation of internal state.
type InMemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*core.PipelineRun
}

// NewInMemoryStore constructs an empty in-memory run store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{runs: make(map[string]*core.PipelineRun)}
}

// Save archives a clone of the provided run snapshot, overwriting any
// previous archive under the same ID.
func (s *InMemoryStore) Save(run *core.PipelineRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run.Clone()
	return nil
}

// Get returns a clone of the archived run or core.ErrRunNotFound.
func (s *InMemoryStore) Get(id string) (*core.PipelineRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if run, ok := s.runs[id]; ok {
		return run.Clone(), nil
	}
	return nil, core.ErrRunNotFound
}

// List returns clones of all archived runs ordered by creation time, oldest
// first. Ties break on run ID so the order stays deterministic.
func (s *InMemoryStore) List() []*core.PipelineRun {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*core.PipelineRun, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
