package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"marginApp/internal/domain"
	"marginApp/internal/metrics"
	"marginApp/internal/ports"
)

// ErrClosedPosition is returned when an update targets a closed position.
var ErrClosedPosition = fmt.Errorf("cannot update a closed margin position: %w", ports.ErrInvalidState)

// PositionLifecycle opens, updates and closes margin positions against a PositionStore.
//
// It performs one Get and at most one Write per call and does not serialize
// concurrent calls on the same position: two racing updates are last-write-wins.
type PositionLifecycle struct {
	logger ports.Logger
	store  ports.PositionStore
	newID  func() uuid.UUID
}

// NewPositionLifecycle creates a new lifecycle service instance.
func NewPositionLifecycle(logger ports.Logger, store ports.PositionStore) (*PositionLifecycle, error) {
	if logger == nil || store == nil {
		return nil, fmt.Errorf("missing required dependencies for PositionLifecycle")
	}
	return &PositionLifecycle{
		logger: logger,
		store:  store,
		newID:  uuid.New,
	}, nil
}

// Open creates a new open position and persists it.
func (s *PositionLifecycle) Open(ctx context.Context, userID uuid.UUID, borrowedAmount decimal.Decimal, multiplier int, transactionID string) (*domain.MarginPosition, error) {
	if err := validateOpen(userID, borrowedAmount, multiplier, transactionID); err != nil {
		metrics.RecordOperation(metrics.OpOpen, metrics.OutcomeInvalidInput)
		s.logger.Warn(ctx, "Rejected margin position open", map[string]interface{}{"userID": userID.String(), "reason": err.Error()})
		return nil, err
	}

	pos := &domain.MarginPosition{
		ID:             s.newID(),
		UserID:         userID,
		BorrowedAmount: borrowedAmount,
		Multiplier:     multiplier,
		TransactionID:  transactionID,
		Status:         domain.StatusOpen,
	}

	saved, err := s.write(ctx, pos)
	if err != nil {
		metrics.RecordOperation(metrics.OpOpen, metrics.OutcomeStoreError)
		s.logger.Error(ctx, err, "Failed to persist new margin position", map[string]interface{}{"userID": userID.String(), "transactionID": transactionID})
		return nil, fmt.Errorf("failed to open margin position: %w", err)
	}

	metrics.RecordOperation(metrics.OpOpen, metrics.OutcomeOK)
	s.logger.Info(ctx, "Margin position opened", map[string]interface{}{
		"positionID":     saved.ID.String(),
		"userID":         saved.UserID.String(),
		"borrowedAmount": saved.BorrowedAmount.String(),
		"multiplier":     saved.Multiplier,
	})
	return saved, nil
}

// Update applies patch to an open position.
// Returns nil, nil if the position does not exist and ErrClosedPosition if it is closed.
func (s *PositionLifecycle) Update(ctx context.Context, id uuid.UUID, patch domain.PositionPatch) (*domain.MarginPosition, error) {
	if err := validatePatch(patch); err != nil {
		metrics.RecordOperation(metrics.OpUpdate, metrics.OutcomeInvalidInput)
		s.logger.Warn(ctx, "Rejected margin position update", map[string]interface{}{"positionID": id.String(), "reason": err.Error()})
		return nil, err
	}

	current, err := s.get(ctx, id)
	if err != nil {
		metrics.RecordOperation(metrics.OpUpdate, metrics.OutcomeStoreError)
		s.logger.Error(ctx, err, "Failed to load margin position for update", map[string]interface{}{"positionID": id.String()})
		return nil, fmt.Errorf("failed to load margin position %s: %w", id, err)
	}
	if current == nil {
		metrics.RecordOperation(metrics.OpUpdate, metrics.OutcomeNotFound)
		s.logger.Debug(ctx, "Margin position not found for update", map[string]interface{}{"positionID": id.String()})
		return nil, nil
	}
	if current.Status.IsTerminal() {
		metrics.RecordOperation(metrics.OpUpdate, metrics.OutcomeInvalidState)
		s.logger.Warn(ctx, "Update attempted on closed margin position", map[string]interface{}{"positionID": id.String()})
		return nil, ErrClosedPosition
	}

	next := current.Clone()
	patch.ApplyTo(next)

	saved, err := s.write(ctx, next)
	if err != nil {
		metrics.RecordOperation(metrics.OpUpdate, metrics.OutcomeStoreError)
		s.logger.Error(ctx, err, "Failed to persist margin position update", map[string]interface{}{"positionID": id.String()})
		return nil, fmt.Errorf("failed to update margin position %s: %w", id, err)
	}

	metrics.RecordOperation(metrics.OpUpdate, metrics.OutcomeOK)
	s.logger.Debug(ctx, "Margin position updated", map[string]interface{}{
		"positionID":     saved.ID.String(),
		"borrowedAmount": saved.BorrowedAmount.String(),
		"multiplier":     saved.Multiplier,
		"emptyPatch":     patch.IsEmpty(),
	})
	return saved, nil
}

// Close marks a position as closed. Closing an already closed position re-persists it.
// Returns nil, nil if the position does not exist.
func (s *PositionLifecycle) Close(ctx context.Context, id uuid.UUID) (*domain.CloseResult, error) {
	current, err := s.get(ctx, id)
	if err != nil {
		metrics.RecordOperation(metrics.OpClose, metrics.OutcomeStoreError)
		s.logger.Error(ctx, err, "Failed to load margin position for close", map[string]interface{}{"positionID": id.String()})
		return nil, fmt.Errorf("failed to load margin position %s: %w", id, err)
	}
	if current == nil {
		metrics.RecordOperation(metrics.OpClose, metrics.OutcomeNotFound)
		s.logger.Debug(ctx, "Margin position not found for close", map[string]interface{}{"positionID": id.String()})
		return nil, nil
	}

	previous := current.Status
	if !previous.CanTransitionTo(domain.StatusClosed) {
		metrics.RecordOperation(metrics.OpClose, metrics.OutcomeInvalidState)
		return nil, fmt.Errorf("margin position %s has unknown status %q: %w", id, previous, ports.ErrInvalidState)
	}

	next := current.Clone()
	next.Status = domain.StatusClosed

	if _, err := s.write(ctx, next); err != nil {
		metrics.RecordOperation(metrics.OpClose, metrics.OutcomeStoreError)
		s.logger.Error(ctx, err, "Failed to persist margin position close", map[string]interface{}{"positionID": id.String()})
		return nil, fmt.Errorf("failed to close margin position %s: %w", id, err)
	}

	metrics.RecordOperation(metrics.OpClose, metrics.OutcomeOK)
	s.logger.Info(ctx, "Margin position closed", map[string]interface{}{
		"positionID":     id.String(),
		"previousStatus": string(previous),
	})
	return &domain.CloseResult{
		PositionID:     id,
		Status:         domain.StatusClosed,
		PreviousStatus: previous,
	}, nil
}

// Get retrieves a position by ID. Returns nil, nil if not found.
func (s *PositionLifecycle) Get(ctx context.Context, id uuid.UUID) (*domain.MarginPosition, error) {
	pos, err := s.get(ctx, id)
	if err != nil {
		metrics.RecordOperation(metrics.OpGet, metrics.OutcomeStoreError)
		return nil, fmt.Errorf("failed to get margin position %s: %w", id, err)
	}
	if pos == nil {
		metrics.RecordOperation(metrics.OpGet, metrics.OutcomeNotFound)
		return nil, nil
	}
	metrics.RecordOperation(metrics.OpGet, metrics.OutcomeOK)
	return pos, nil
}

func (s *PositionLifecycle) get(ctx context.Context, id uuid.UUID) (*domain.MarginPosition, error) {
	defer metrics.ObserveStore("get", time.Now())
	return s.store.Get(ctx, id)
}

func (s *PositionLifecycle) write(ctx context.Context, pos *domain.MarginPosition) (*domain.MarginPosition, error) {
	defer metrics.ObserveStore("write", time.Now())
	saved, err := s.store.Write(ctx, pos)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, errors.New("store returned no record after write")
	}
	return saved, nil
}

func validateOpen(userID uuid.UUID, borrowedAmount decimal.Decimal, multiplier int, transactionID string) error {
	switch {
	case userID == uuid.Nil:
		return fmt.Errorf("user ID is required: %w", ports.ErrInvalidRequest)
	case borrowedAmount.IsNegative():
		return fmt.Errorf("borrowed amount %s must not be negative: %w", borrowedAmount, ports.ErrInvalidRequest)
	case multiplier < 1:
		return fmt.Errorf("multiplier %d must be a positive integer: %w", multiplier, ports.ErrInvalidRequest)
	case transactionID == "":
		return fmt.Errorf("transaction ID is required: %w", ports.ErrInvalidRequest)
	}
	return nil
}

func validatePatch(patch domain.PositionPatch) error {
	if patch.BorrowedAmount != nil && patch.BorrowedAmount.IsNegative() {
		return fmt.Errorf("borrowed amount %s must not be negative: %w", *patch.BorrowedAmount, ports.ErrInvalidRequest)
	}
	if patch.Multiplier != nil && *patch.Multiplier < 1 {
		return fmt.Errorf("multiplier %d must be a positive integer: %w", *patch.Multiplier, ports.ErrInvalidRequest)
	}
	return nil
}
