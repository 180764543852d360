package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"marginApp/internal/domain"
	"marginApp/internal/ports"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Repository implements the ports.PositionStore and ports.PositionQuery interfaces using PostgreSQL.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the PostgreSQL repository.
type Config struct {
	DSN    string
	Logger ports.Logger
}

// NewRepository opens the database, verifies the connection and migrates the schema.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for PostgreSQL repository")
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("DSN is required for PostgreSQL repository: %w", ports.ErrConfigurationError)
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w: %w", ports.ErrDBConnection, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w: %w", ports.ErrDBConnection, err)
	}

	repo := NewWithDB(db, cfg.Logger)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	cfg.Logger.Info(ctx, "PostgreSQL database connection established")
	return repo, nil
}

// NewWithDB wraps an already opened connection pool.
func NewWithDB(db *sql.DB, logger ports.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// Migrate creates the margin_positions table if it does not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS margin_positions (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		borrowed_amount NUMERIC(38, 18) NOT NULL CHECK (borrowed_amount >= 0),
		multiplier INTEGER NOT NULL CHECK (multiplier >= 1),
		transaction_id TEXT NOT NULL,
		status TEXT NOT NULL,
		liquidated_at TIMESTAMPTZ NULL
	);
	CREATE INDEX IF NOT EXISTS idx_margin_positions_liquidated_at ON margin_positions (liquidated_at);`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing PostgreSQL database connection")
		return r.db.Close()
	}
	return nil
}

// Get retrieves a position by ID. Returns nil, nil if not found.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*domain.MarginPosition, error) {
	const query = `
		SELECT id, user_id, borrowed_amount, multiplier, transaction_id, status, liquidated_at
		FROM margin_positions
		WHERE id = $1`

	pos, err := scanPosition(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query margin position %s: %w: %w", id, ports.ErrQueryFailed, err)
	}
	return pos, nil
}

// Write upserts the full record and returns the row as stored.
func (r *Repository) Write(ctx context.Context, pos *domain.MarginPosition) (*domain.MarginPosition, error) {
	const query = `
		INSERT INTO margin_positions (id, user_id, borrowed_amount, multiplier, transaction_id, status, liquidated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			borrowed_amount = EXCLUDED.borrowed_amount,
			multiplier = EXCLUDED.multiplier,
			transaction_id = EXCLUDED.transaction_id,
			status = EXCLUDED.status,
			liquidated_at = EXCLUDED.liquidated_at
		RETURNING id, user_id, borrowed_amount, multiplier, transaction_id, status, liquidated_at`

	var liquidatedAt sql.NullTime
	if pos.LiquidatedAt != nil {
		liquidatedAt = sql.NullTime{Time: *pos.LiquidatedAt, Valid: true}
	}

	saved, err := scanPosition(r.db.QueryRowContext(ctx, query,
		pos.ID, pos.UserID, pos.BorrowedAmount, pos.Multiplier,
		pos.TransactionID, string(pos.Status), liquidatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to write margin position %s: %w: %w", pos.ID, ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "Margin position written", map[string]interface{}{"positionID": pos.ID.String(), "status": string(pos.Status)})
	return saved, nil
}

// CountNotLiquidated counts positions without a liquidation timestamp.
func (r *Repository) CountNotLiquidated(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM margin_positions WHERE liquidated_at IS NULL`)
}

// CountLiquidated counts positions with a liquidation timestamp.
func (r *Repository) CountLiquidated(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM margin_positions WHERE liquidated_at IS NOT NULL`)
}

func (r *Repository) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count margin positions: %w: %w", ports.ErrQueryFailed, err)
	}
	return n, nil
}

// FindLiquidated retrieves all liquidated positions, most recent first.
func (r *Repository) FindLiquidated(ctx context.Context) ([]*domain.MarginPosition, error) {
	const query = `
		SELECT id, user_id, borrowed_amount, multiplier, transaction_id, status, liquidated_at
		FROM margin_positions
		WHERE liquidated_at IS NOT NULL
		ORDER BY liquidated_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query liquidated positions: %w: %w", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var positions []*domain.MarginPosition
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan liquidated position: %w", err)
		}
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating liquidated positions: %w", err)
	}
	return positions, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPosition(s scanner) (*domain.MarginPosition, error) {
	p := &domain.MarginPosition{}
	var liquidatedAt sql.NullTime
	var status string
	if err := s.Scan(&p.ID, &p.UserID, &p.BorrowedAmount, &p.Multiplier, &p.TransactionID, &status, &liquidatedAt); err != nil {
		return nil, err
	}
	if liquidatedAt.Valid {
		t := liquidatedAt.Time
		p.LiquidatedAt = &t
	}
	p.Status = domain.PositionStatus(status)
	return p, nil
}
