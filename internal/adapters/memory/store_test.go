package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marginApp/internal/domain"
	"marginApp/internal/ports"
)

var _ ports.PositionRepository = (*Store)(nil)

func TestStore_WriteGetIsolation(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	pos := &domain.MarginPosition{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		BorrowedAmount: decimal.RequireFromString("1000.00"),
		Multiplier:     5,
		TransactionID:  "tx_1",
		Status:         domain.StatusOpen,
	}

	saved, err := s.Write(ctx, pos)
	require.NoError(t, err)
	saved.Multiplier = 99
	pos.Multiplier = 42

	got, err := s.Get(ctx, pos.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Multiplier)

	missing, err := s.Get(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_CanceledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Write(ctx, &domain.MarginPosition{ID: uuid.New()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_Liquidated(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		_, err := s.Write(ctx, &domain.MarginPosition{ID: uuid.New(), Multiplier: 1, Status: domain.StatusClosed, LiquidatedAt: &at})
		require.NoError(t, err)
	}
	_, err := s.Write(ctx, &domain.MarginPosition{ID: uuid.New(), Multiplier: 1, Status: domain.StatusOpen})
	require.NoError(t, err)

	opened, _ := s.CountNotLiquidated(ctx)
	liquidated, _ := s.CountLiquidated(ctx)
	assert.Equal(t, 1, opened)
	assert.Equal(t, 3, liquidated)

	list, err := s.FindLiquidated(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].LiquidatedAt.Equal(base.Add(2*time.Minute)))
	assert.True(t, list[2].LiquidatedAt.Equal(base))
}
