package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPositionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from PositionStatus
		to   PositionStatus
		want bool
	}{
		{StatusOpen, StatusOpen, true},
		{StatusOpen, StatusClosed, true},
		{StatusClosed, StatusClosed, true},
		{StatusClosed, StatusOpen, false},
		{PositionStatus("Frozen"), StatusClosed, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
	assert.True(t, StatusClosed.IsTerminal())
	assert.False(t, StatusOpen.IsTerminal())
	assert.False(t, PositionStatus("open").IsValid())
}

func TestMarginPosition_Clone(t *testing.T) {
	at := time.Now()
	p := &MarginPosition{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		BorrowedAmount: decimal.RequireFromString("12.34"),
		Multiplier:     3,
		TransactionID:  "tx",
		Status:         StatusOpen,
		LiquidatedAt:   &at,
	}

	c := p.Clone()
	assert.Equal(t, p, c)

	c.Multiplier = 9
	later := at.Add(time.Hour)
	*c.LiquidatedAt = later

	assert.Equal(t, 3, p.Multiplier)
	assert.True(t, at.Equal(*p.LiquidatedAt))
	assert.Nil(t, (*MarginPosition)(nil).Clone())
}

func TestPositionPatch_ApplyTo(t *testing.T) {
	amount := decimal.RequireFromString("1500.00")
	mult := 10
	base := func() *MarginPosition {
		return &MarginPosition{BorrowedAmount: decimal.RequireFromString("1000.00"), Multiplier: 5}
	}

	p := base()
	PositionPatch{}.ApplyTo(p)
	assert.Equal(t, base(), p)
	assert.True(t, PositionPatch{}.IsEmpty())

	p = base()
	PositionPatch{Multiplier: &mult}.ApplyTo(p)
	assert.Equal(t, 10, p.Multiplier)
	assert.Equal(t, "1000", p.BorrowedAmount.String())

	p = base()
	PositionPatch{BorrowedAmount: &amount}.ApplyTo(p)
	assert.True(t, amount.Equal(p.BorrowedAmount))
	assert.Equal(t, 5, p.Multiplier)
}
