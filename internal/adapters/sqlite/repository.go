package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"marginApp/internal/domain"
	"marginApp/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.PositionStore and ports.PositionQuery interfaces using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/margin_positions.db" // Default path
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
			cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
			return nil, err
		}
		cfg.Logger.Info(context.Background(), "Data directory checked/created", map[string]interface{}{"path": filepath.Dir(dbPath)})
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// A single connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
// borrowed_amount is TEXT so the decimal string survives unchanged.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS margin_positions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		borrowed_amount TEXT NOT NULL,
		multiplier INTEGER NOT NULL CHECK (multiplier >= 1),
		transaction_id TEXT NOT NULL,
		status TEXT NOT NULL,
		liquidated_at TIMESTAMP DEFAULT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_margin_positions_user ON margin_positions (user_id);
	CREATE INDEX IF NOT EXISTS idx_margin_positions_liquidated_at ON margin_positions (liquidated_at);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- PositionStore Implementation ---

// Get retrieves a position by its unique ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*domain.MarginPosition, error) {
	const query = `
	SELECT id, user_id, borrowed_amount, multiplier, transaction_id, status, liquidated_at
	FROM margin_positions
	WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id.String())
	pos, err := scanPosition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "Margin position not found by ID", map[string]interface{}{"positionID": id.String()})
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query margin position by ID %s: %w: %w", id, ports.ErrQueryFailed, err)
	}
	return pos, nil
}

// Write inserts or fully replaces the record for pos.ID.
func (r *Repository) Write(ctx context.Context, pos *domain.MarginPosition) (*domain.MarginPosition, error) {
	const query = `
	INSERT INTO margin_positions (id, user_id, borrowed_amount, multiplier, transaction_id, status, liquidated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		user_id = excluded.user_id,
		borrowed_amount = excluded.borrowed_amount,
		multiplier = excluded.multiplier,
		transaction_id = excluded.transaction_id,
		status = excluded.status,
		liquidated_at = excluded.liquidated_at`

	var liquidatedAt sql.NullTime
	if pos.LiquidatedAt != nil {
		liquidatedAt = sql.NullTime{Time: pos.LiquidatedAt.UTC(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		pos.ID.String(), pos.UserID.String(), pos.BorrowedAmount.String(), pos.Multiplier,
		pos.TransactionID, string(pos.Status), liquidatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to write margin position ID %s: %w: %w", pos.ID, ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "Margin position written", map[string]interface{}{"positionID": pos.ID.String(), "status": string(pos.Status)})
	return pos.Clone(), nil
}

// --- PositionQuery Implementation ---

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

// FindLiquidated retrieves all liquidated positions, most recent liquidation first.
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

	positions := make([]*domain.MarginPosition, 0)
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan margin position during FindLiquidated: %w", err)
		}
		positions = append(positions, pos)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating margin position rows: %w", err)
	}
	return positions, nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanPosition scans a row into a domain.MarginPosition struct.
func scanPosition(s scanner) (*domain.MarginPosition, error) {
	p := &domain.MarginPosition{}
	var liquidatedAt sql.NullTime
	var status string
	err := s.Scan(
		&p.ID, &p.UserID, &p.BorrowedAmount, &p.Multiplier, &p.TransactionID, &status, &liquidatedAt)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	if liquidatedAt.Valid {
		t := liquidatedAt.Time.In(time.UTC)
		p.LiquidatedAt = &t
	}
	p.Status = domain.PositionStatus(status)
	return p, nil
}
