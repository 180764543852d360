package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"marginApp/internal/domain"
	"marginApp/internal/ports"
)

// RiskConfig holds the request-level limits enforced in front of the lifecycle.
type RiskConfig struct {
	MaxLeverage int // Highest accepted multiplier
}

// RiskManager checks open and update requests against RiskConfig.
// The lifecycle itself only requires multiplier >= 1 and a non-negative amount.
type RiskManager struct {
	config RiskConfig
}

// NewRiskManager creates a new risk manager instance
func NewRiskManager(config RiskConfig) *RiskManager {
	if config.MaxLeverage < 1 {
		config.MaxLeverage = 1
	}
	return &RiskManager{config: config}
}

// MaxLeverage returns the configured multiplier ceiling.
func (r *RiskManager) MaxLeverage() int {
	return r.config.MaxLeverage
}

// ValidateOpen checks the leverage of a new position.
func (r *RiskManager) ValidateOpen(borrowedAmount decimal.Decimal, multiplier int) error {
	if borrowedAmount.IsNegative() {
		return fmt.Errorf("borrowed_amount %s must not be negative: %w", borrowedAmount, ports.ErrInvalidRequest)
	}
	return r.checkLeverage(multiplier)
}

// ValidatePatch checks the fields present in an update.
// A present borrowed amount must be strictly positive.
func (r *RiskManager) ValidatePatch(patch domain.PositionPatch) error {
	if patch.BorrowedAmount != nil && !patch.BorrowedAmount.IsPositive() {
		return fmt.Errorf("borrowed_amount must be greater than zero: %w", ports.ErrInvalidRequest)
	}
	if patch.Multiplier != nil {
		return r.checkLeverage(*patch.Multiplier)
	}
	return nil
}

func (r *RiskManager) checkLeverage(multiplier int) error {
	if multiplier < 1 || multiplier > r.config.MaxLeverage {
		return fmt.Errorf("multiplier must be between 1 and %d, got %d: %w", r.config.MaxLeverage, multiplier, ports.ErrInvalidRequest)
	}
	return nil
}
