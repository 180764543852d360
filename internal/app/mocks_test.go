package app

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"marginApp/internal/domain"
)

// Mock implementations
type mockLogger struct {
	mu        sync.Mutex
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorMsgs = append(m.errorMsgs, msg)
}

// mockPositionStore records every call and keeps copies of written records.
type mockPositionStore struct {
	mu        sync.Mutex
	positions map[uuid.UUID]*domain.MarginPosition
	getErr    error
	writeErr  error
	getCalls  []uuid.UUID
	written   []*domain.MarginPosition
}

func newMockPositionStore(seed ...*domain.MarginPosition) *mockPositionStore {
	m := &mockPositionStore{positions: make(map[uuid.UUID]*domain.MarginPosition)}
	for _, p := range seed {
		m.positions[p.ID] = p.Clone()
	}
	return m
}

func (m *mockPositionStore) Get(ctx context.Context, id uuid.UUID) (*domain.MarginPosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls = append(m.getCalls, id)
	if m.getErr != nil {
		return nil, m.getErr
	}
	pos, ok := m.positions[id]
	if !ok {
		return nil, nil
	}
	return pos.Clone(), nil
}

func (m *mockPositionStore) Write(ctx context.Context, pos *domain.MarginPosition) (*domain.MarginPosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = append(m.written, pos.Clone())
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	m.positions[pos.ID] = pos.Clone()
	return pos.Clone(), nil
}

func (m *mockPositionStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.written)
}

type mockPositionQuery struct {
	notLiquidated    int
	liquidated       int
	liquidatedList   []*domain.MarginPosition
	countErr         error
	countLiquidErr   error
	findLiquidateErr error
}

func (m *mockPositionQuery) CountNotLiquidated(ctx context.Context) (int, error) {
	return m.notLiquidated, m.countErr
}

func (m *mockPositionQuery) CountLiquidated(ctx context.Context) (int, error) {
	return m.liquidated, m.countLiquidErr
}

func (m *mockPositionQuery) FindLiquidated(ctx context.Context) ([]*domain.MarginPosition, error) {
	if m.findLiquidateErr != nil {
		return nil, m.findLiquidateErr
	}
	return m.liquidatedList, nil
}
