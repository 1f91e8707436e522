package pool

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/peregrine-ai/peregrine/internal/domain"
)

// MemorySource is an in-process candidate pool for development and tests.
type MemorySource struct {
	mu         sync.RWMutex
	candidates map[string][]domain.Candidate // keyed by lower-cased destination
}

// NewMemorySource creates an empty in-memory pool.
func NewMemorySource() *MemorySource {
	return &MemorySource{candidates: make(map[string][]domain.Candidate)}
}

// Add registers candidates for a destination.
func (m *MemorySource) Add(destination string, candidates ...domain.Candidate) {
	key := strings.ToLower(strings.TrimSpace(destination))

	m.mu.Lock()
	m.candidates[key] = append(m.candidates[key], candidates...)
	m.mu.Unlock()
}

// FetchCandidatePool returns up to limit candidates for the destination at
// or above minQuality, best first.
func (m *MemorySource) FetchCandidatePool(_ context.Context, destination string, minQuality float64, limit int) ([]domain.Candidate, error) {
	key := strings.ToLower(strings.TrimSpace(destination))

	m.mu.RLock()
	stored := m.candidates[key]
	m.mu.RUnlock()

	filtered := make([]domain.Candidate, 0, len(stored))
	for _, c := range stored {
		if c.Quality >= minQuality {
			filtered = append(filtered, c)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Quality != filtered[j].Quality {
			return filtered[i].Quality > filtered[j].Quality
		}
		return filtered[i].Name < filtered[j].Name
	})

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}
