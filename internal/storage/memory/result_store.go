package memory

import (
	"context"
	"sort"
	"sync"

	"arb-backtest-lab/internal/domain"
	"arb-backtest-lab/internal/storage"
)

// ResultStore is an in-memory implementation of storage.ResultStore.
type ResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BacktestResults // keyed by run ID
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		data: make(map[string]*domain.BacktestResults),
	}
}

// Insert stores a run's results. Returns ErrDuplicateKey if the run ID
// exists.
func (s *ResultStore) Insert(_ context.Context, r *domain.BacktestResults) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *r
	s.data[r.RunID] = &cp
	return nil
}

// GetByID retrieves results by run ID. Returns ErrNotFound if absent.
func (s *ResultStore) GetByID(_ context.Context, runID string) (*domain.BacktestResults, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[runID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// GetAll retrieves all stored results ordered by generation time ascending.
func (s *ResultStore) GetAll(_ context.Context) ([]*domain.BacktestResults, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.BacktestResults, 0, len(s.data))
	for _, r := range s.data {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].GeneratedAt.Equal(out[j].GeneratedAt) {
			return out[i].GeneratedAt.Before(out[j].GeneratedAt)
		}
		return out[i].RunID < out[j].RunID
	})
	return out, nil
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)
