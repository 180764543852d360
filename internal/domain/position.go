package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MarginPosition represents a leveraged position funded partly by borrowed capital.
type MarginPosition struct {
	ID             uuid.UUID       // Assigned at creation, immutable
	UserID         uuid.UUID       // Owning account, immutable
	BorrowedAmount decimal.Decimal // Exact decimal, never negative
	Multiplier     int             // Leverage factor, >= 1
	TransactionID  string          // Funding transaction that created the position, immutable
	Status         PositionStatus  // Open or Closed
	LiquidatedAt   *time.Time      // Set only by the external liquidation process
}

// IsOpen checks if the position status is open.
func (p *MarginPosition) IsOpen() bool {
	return p.Status == StatusOpen
}

// IsLiquidated reports whether the liquidation process has stamped the position.
func (p *MarginPosition) IsLiquidated() bool {
	return p.LiquidatedAt != nil
}

// Clone returns a deep copy that can be mutated without affecting p.
func (p *MarginPosition) Clone() *MarginPosition {
	if p == nil {
		return nil
	}
	c := *p
	if p.LiquidatedAt != nil {
		t := *p.LiquidatedAt
		c.LiquidatedAt = &t
	}
	return &c
}

// PositionPatch describes a partial update. A nil field is left unchanged.
type PositionPatch struct {
	BorrowedAmount *decimal.Decimal
	Multiplier     *int
}

// IsEmpty reports whether the patch carries no fields.
func (p PositionPatch) IsEmpty() bool {
	return p.BorrowedAmount == nil && p.Multiplier == nil
}

// ApplyTo copies every present field onto pos.
func (p PositionPatch) ApplyTo(pos *MarginPosition) {
	if p.BorrowedAmount != nil {
		pos.BorrowedAmount = *p.BorrowedAmount
	}
	if p.Multiplier != nil {
		pos.Multiplier = *p.Multiplier
	}
}

// CloseResult is the outcome of closing an existing position.
type CloseResult struct {
	PositionID     uuid.UUID
	Status         PositionStatus // Always StatusClosed
	PreviousStatus PositionStatus // StatusOpen if this call terminated it, StatusClosed if already closed
}

// AlreadyClosed reports whether the position was closed before this call.
func (r *CloseResult) AlreadyClosed() bool {
	return r.PreviousStatus == StatusClosed
}

// Statistic holds dashboard counters over all stored positions.
type Statistic struct {
	OpenedPositions     int
	LiquidatedPositions int
}
