package app

import (
	"context"
	"fmt"

	"marginApp/internal/domain"
	"marginApp/internal/ports"
)

// StatisticsService answers the dashboard aggregate queries.
type StatisticsService struct {
	logger ports.Logger
	query  ports.PositionQuery
}

// NewStatisticsService creates a new statistics service instance.
func NewStatisticsService(logger ports.Logger, query ports.PositionQuery) (*StatisticsService, error) {
	if logger == nil || query == nil {
		return nil, fmt.Errorf("missing required dependencies for StatisticsService")
	}
	return &StatisticsService{logger: logger, query: query}, nil
}

// Statistic returns the opened and liquidated position counts.
func (s *StatisticsService) Statistic(ctx context.Context) (*domain.Statistic, error) {
	opened, err := s.query.CountNotLiquidated(ctx)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to count opened positions")
		return nil, fmt.Errorf("failed to get statistic: %w", err)
	}
	liquidated, err := s.query.CountLiquidated(ctx)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to count liquidated positions")
		return nil, fmt.Errorf("failed to get statistic: %w", err)
	}
	return &domain.Statistic{
		OpenedPositions:     opened,
		LiquidatedPositions: liquidated,
	}, nil
}

// LiquidatedPositions returns every position stamped by the liquidation process.
func (s *StatisticsService) LiquidatedPositions(ctx context.Context) ([]*domain.MarginPosition, error) {
	positions, err := s.query.FindLiquidated(ctx)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to retrieve liquidated positions")
		return nil, fmt.Errorf("error retrieving liquidated positions: %w", err)
	}
	return positions, nil
}
