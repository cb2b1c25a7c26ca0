package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"copyTradeEngine/internal/domain"
	"copyTradeEngine/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.CopyAuditRepository and
// ports.LeaderStatsRepository using SQLite.
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
		dbPath = "./data/copy_trading.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Open database connection
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Set connection pool settings (important for SQLite)
	db.SetMaxOpenConns(1) // SQLite handles concurrency internally, but Go driver benefits from limiting connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
// NOTE: This is a basic approach. A proper migration tool is recommended for production.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS copy_trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		copy_id TEXT NOT NULL,
		follower_id TEXT NOT NULL,
		leader_id TEXT NOT NULL,
		original_trade_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		signature TEXT NOT NULL,
		status TEXT NOT NULL,
		trade_id TEXT DEFAULT NULL,
		copy_value REAL DEFAULT NULL,
		error TEXT DEFAULT NULL,
		requested_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS leader_stats (
		leader_id TEXT PRIMARY KEY,
		followers_count INTEGER NOT NULL DEFAULT 0,
		total_copies INTEGER NOT NULL DEFAULT 0,
		successful_copies INTEGER NOT NULL DEFAULT 0,
		failed_copies INTEGER NOT NULL DEFAULT 0,
		copied_volume REAL NOT NULL DEFAULT 0,
		return_7d REAL NOT NULL DEFAULT 0,
		return_30d REAL NOT NULL DEFAULT 0,
		return_all REAL NOT NULL DEFAULT 0,
		updated_at TIMESTAMP DEFAULT NULL
	);
	-- Add indexes for common lookups
	CREATE INDEX IF NOT EXISTS idx_copy_trades_copy_id ON copy_trades (copy_id, completed_at);
	CREATE INDEX IF NOT EXISTS idx_copy_trades_follower ON copy_trades (follower_id, completed_at);
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

// --- CopyAuditRepository Implementation ---

// RecordResult saves the terminal audit record for one copy.
func (r *Repository) RecordResult(ctx context.Context, rec *domain.CopyAuditRecord) error {
	const query = `
	INSERT INTO copy_trades (copy_id, follower_id, leader_id, original_trade_id, symbol,
	                         signature, status, trade_id, copy_value, error, requested_at, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var tradeID sql.NullString
	if rec.TradeID != "" {
		tradeID = sql.NullString{String: rec.TradeID, Valid: true}
	}
	var errMsg sql.NullString
	if rec.Error != "" {
		errMsg = sql.NullString{String: rec.Error, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		rec.CopyID, rec.FollowerID, rec.LeaderID, rec.OriginalTradeID, rec.Symbol,
		rec.Signature, rec.Status, tradeID, rec.CopyValue, errMsg, rec.RequestedAt, rec.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit record for copy %s: %w", rec.CopyID, err)
	}
	r.logger.Debug(ctx, "Copy audit record created", map[string]interface{}{"copyID": rec.CopyID, "status": rec.Status})
	return nil
}

// FindByCopyID retrieves the most recent audit record for a copy id.
func (r *Repository) FindByCopyID(ctx context.Context, copyID string) (*domain.CopyAuditRecord, error) {
	const query = `
	SELECT copy_id, follower_id, leader_id, original_trade_id, symbol, signature, status,
	       COALESCE(trade_id, ''), COALESCE(copy_value, 0), COALESCE(error, ''), requested_at, completed_at
	FROM copy_trades
	WHERE copy_id = ?
	ORDER BY completed_at DESC LIMIT 1`

	rec := &domain.CopyAuditRecord{}
	var status string
	err := r.db.QueryRowContext(ctx, query, copyID).Scan(
		&rec.CopyID, &rec.FollowerID, &rec.LeaderID, &rec.OriginalTradeID, &rec.Symbol,
		&rec.Signature, &status, &rec.TradeID, &rec.CopyValue, &rec.Error,
		&rec.RequestedAt, &rec.CompletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query audit record for copy %s: %w", copyID, err)
	}
	rec.Status = domain.CopyStatus(status)
	return rec, nil
}

// --- LeaderStatsRepository Implementation ---

// HasLeader reports whether a leader is registered.
func (r *Repository) HasLeader(ctx context.Context, leaderID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM leader_stats WHERE leader_id = ?`
	var count int
	if err := r.db.QueryRowContext(ctx, query, leaderID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check leader %s: %w", leaderID, err)
	}
	return count > 0, nil
}

// RecordBatch folds one batch's outcome into the leader's aggregates,
// creating the leader row on first use.
func (r *Repository) RecordBatch(ctx context.Context, leaderID string, successful, failed int, copiedVolume float64) error {
	const query = `
	INSERT INTO leader_stats (leader_id, total_copies, successful_copies, failed_copies, copied_volume, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(leader_id) DO UPDATE SET
		total_copies = total_copies + excluded.total_copies,
		successful_copies = successful_copies + excluded.successful_copies,
		failed_copies = failed_copies + excluded.failed_copies,
		copied_volume = copied_volume + excluded.copied_volume,
		updated_at = excluded.updated_at`

	total := successful + failed
	_, err := r.db.ExecContext(ctx, query, leaderID, total, successful, failed, copiedVolume, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record batch stats for leader %s: %w", leaderID, err)
	}
	return nil
}

// AdjustFollowers changes the leader's follower count by delta, never
// dropping below zero.
func (r *Repository) AdjustFollowers(ctx context.Context, leaderID string, delta int64) error {
	// The insert clamps the initial count; the update branch must see the
	// raw delta so decrements apply, hence the separate bind parameter.
	const query = `
	INSERT INTO leader_stats (leader_id, followers_count, updated_at)
	VALUES (?, MAX(0, ?), ?)
	ON CONFLICT(leader_id) DO UPDATE SET
		followers_count = MAX(0, followers_count + ?),
		updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query, leaderID, delta, time.Now(), delta)
	if err != nil {
		return fmt.Errorf("failed to adjust follower count for leader %s: %w", leaderID, err)
	}
	return nil
}

// timeframeColumns maps the leaderboard timeframes to return columns.
// Unknown timeframes fall back to the all-time column.
var timeframeColumns = map[string]string{
	"7d":  "return_7d",
	"30d": "return_30d",
	"all": "return_all",
}

// TopLeaders returns up to limit leaders ordered by return percentage for
// the given timeframe.
func (r *Repository) TopLeaders(ctx context.Context, timeframe string, limit int) ([]*domain.LeaderStats, error) {
	column, ok := timeframeColumns[timeframe]
	if !ok {
		column = timeframeColumns["all"]
	}

	// column comes from the whitelist above, never from user input.
	query := fmt.Sprintf(`
	SELECT leader_id, %s, followers_count, total_copies, copied_volume,
	       successful_copies, failed_copies
	FROM leader_stats
	ORDER BY %s DESC, followers_count DESC
	LIMIT ?`, column, column)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	leaders := make([]*domain.LeaderStats, 0, limit)
	for rows.Next() {
		ls := &domain.LeaderStats{}
		var successful, failed int64
		if err := rows.Scan(&ls.LeaderID, &ls.ReturnPercentage, &ls.FollowersCount,
			&ls.TotalCopies, &ls.CopiedVolume, &successful, &failed); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		if successful+failed > 0 {
			ls.SuccessRate = float64(successful) / float64(successful+failed)
		}
		ls.Tier = domain.TierForFollowers(ls.FollowersCount)
		leaders = append(leaders, ls)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard rows: %w", err)
	}
	return leaders, nil
}
