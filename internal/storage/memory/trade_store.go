package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"arb-backtest-lab/internal/domain"
	"arb-backtest-lab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.HistoricalTrade // keyed by trade ID
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.HistoricalTrade),
	}
}

// Insert adds a single trade. Returns ErrDuplicateKey if the ID exists.
func (s *TradeStore) Insert(_ context.Context, t *domain.HistoricalTrade) error {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *t
	s.data[t.ID] = &cp
	return nil
}

// InsertBulk adds multiple trades atomically. Fails the entire batch on any
// duplicate.
func (s *TradeStore) InsertBulk(_ context.Context, trades []*domain.HistoricalTrade) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t == nil || t.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[t.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[t.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[t.ID] = struct{}{}
	}

	for _, t := range trades {
		cp := *t
		s.data[t.ID] = &cp
	}
	return nil
}

// GetByTimeRange retrieves trades on the given networks with
// start <= timestamp < end, ordered by timestamp ascending. An empty network
// list matches all networks.
func (s *TradeStore) GetByTimeRange(_ context.Context, networks []string, start, end time.Time) ([]*domain.HistoricalTrade, error) {
	networkSet := make(map[string]struct{}, len(networks))
	for _, n := range networks {
		networkSet[n] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.HistoricalTrade
	for _, t := range s.data {
		if t.Timestamp.Before(start) || !t.Timestamp.Before(end) {
			continue
		}
		if len(networkSet) > 0 {
			if _, ok := networkSet[t.Network]; !ok {
				continue
			}
		}
		cp := *t
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)
