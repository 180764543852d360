package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"marginApp/internal/domain"
)

// Store is an in-process PositionStore and PositionQuery.
// Records are copied on the way in and out so callers never share state with the map.
type Store struct {
	mu        sync.RWMutex
	positions map[uuid.UUID]*domain.MarginPosition
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{positions: make(map[uuid.UUID]*domain.MarginPosition)}
}

// Get returns a copy of the record, or nil, nil if absent.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*domain.MarginPosition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.positions[id].Clone(), nil
}

// Write replaces the record for pos.ID.
func (s *Store) Write(ctx context.Context, pos *domain.MarginPosition) (*domain.MarginPosition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[pos.ID] = pos.Clone()
	return pos.Clone(), nil
}

// CountNotLiquidated counts records without a liquidation timestamp.
func (s *Store) CountNotLiquidated(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.positions {
		if !p.IsLiquidated() {
			n++
		}
	}
	return n, nil
}

// CountLiquidated counts records with a liquidation timestamp.
func (s *Store) CountLiquidated(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.positions {
		if p.IsLiquidated() {
			n++
		}
	}
	return n, nil
}

// FindLiquidated returns copies of all liquidated records, most recent first.
func (s *Store) FindLiquidated(ctx context.Context) ([]*domain.MarginPosition, error) {
	s.mu.RLock()
	out := make([]*domain.MarginPosition, 0)
	for _, p := range s.positions {
		if p.IsLiquidated() {
			out = append(out, p.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].LiquidatedAt.After(*out[j].LiquidatedAt)
	})
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
