package ports

import (
	"context"

	"github.com/google/uuid"

	"marginApp/internal/domain"
)

// PositionStore is the persistence boundary of the position lifecycle.
// Implementations must serialize physical access to a single record but are not
// required to make a Get followed by a Write atomic.
type PositionStore interface {
	// Get retrieves the full record for id.
	// Returns nil, nil if not found; errors are reserved for genuine I/O faults.
	Get(ctx context.Context, id uuid.UUID) (*domain.MarginPosition, error)
	// Write durably persists the full record, replacing any prior value for its ID,
	// and returns the persisted form.
	Write(ctx context.Context, pos *domain.MarginPosition) (*domain.MarginPosition, error)
}

// PositionQuery provides the read-only aggregate views used by the dashboard.
type PositionQuery interface {
	// CountNotLiquidated counts positions whose liquidation timestamp is unset.
	CountNotLiquidated(ctx context.Context) (int, error)
	// CountLiquidated counts positions whose liquidation timestamp is set.
	CountLiquidated(ctx context.Context) (int, error)
	// FindLiquidated retrieves all liquidated positions.
	FindLiquidated(ctx context.Context) ([]*domain.MarginPosition, error)
}

// PositionRepository is a store that also answers the dashboard queries.
type PositionRepository interface {
	PositionStore
	PositionQuery
	Close() error
}
