package handlers

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"marginApp/internal/domain"
)

var errMockDatabase = errors.New("mock database error")

// mockPositionService records calls and returns canned results.
type mockPositionService struct {
	mu sync.Mutex

	openFn   func(userID uuid.UUID, amount decimal.Decimal, multiplier int, tx string) (*domain.MarginPosition, error)
	updateFn func(id uuid.UUID, patch domain.PositionPatch) (*domain.MarginPosition, error)
	closeFn  func(id uuid.UUID) (*domain.CloseResult, error)
	getFn    func(id uuid.UUID) (*domain.MarginPosition, error)

	calls int
}

func (m *mockPositionService) Open(_ context.Context, userID uuid.UUID, amount decimal.Decimal, multiplier int, tx string) (*domain.MarginPosition, error) {
	m.record()
	return m.openFn(userID, amount, multiplier, tx)
}

func (m *mockPositionService) Update(_ context.Context, id uuid.UUID, patch domain.PositionPatch) (*domain.MarginPosition, error) {
	m.record()
	return m.updateFn(id, patch)
}

func (m *mockPositionService) Close(_ context.Context, id uuid.UUID) (*domain.CloseResult, error) {
	m.record()
	return m.closeFn(id)
}

func (m *mockPositionService) Get(_ context.Context, id uuid.UUID) (*domain.MarginPosition, error) {
	m.record()
	return m.getFn(id)
}

func (m *mockPositionService) record() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
}

func (m *mockPositionService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockStatistics is a canned StatisticsProvider.
type mockStatistics struct {
	stat    *domain.Statistic
	list    []*domain.MarginPosition
	statErr error
	listErr error
}

func (m *mockStatistics) Statistic(context.Context) (*domain.Statistic, error) {
	return m.stat, m.statErr
}

func (m *mockStatistics) LiquidatedPositions(context.Context) ([]*domain.MarginPosition, error) {
	return m.list, m.listErr
}

// nopLogger discards everything.
type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...map[string]interface{})       {}
func (nopLogger) Info(context.Context, string, ...map[string]interface{})        {}
func (nopLogger) Warn(context.Context, string, ...map[string]interface{})        {}
func (nopLogger) Error(context.Context, error, string, ...map[string]interface{}) {}
