package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kailas-cloud/budgetd/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds parameters for a SQLite store.
type Config struct {
	// Path is the database file path.
	Path string
	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// Store implements db.Store on a local SQLite file.
//
// The database runs in WAL mode with synchronous=FULL, so a successful
// AddSpend is on disk before it returns. The pool is capped at a single
// connection: SQLite allows one writer at a time, and the single
// connection also serializes the read-modify-write inside AddSpend
// across goroutines.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the SQLite database and initializes the schema.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=busy_timeout(%d)",
		cfg.Path, cfg.BusyTimeout.Milliseconds(),
	)

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	s := &Store{db: sqlDB, path: cfg.Path}
	if err := s.initSchema(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ledger_entries (
		key        TEXT PRIMARY KEY,
		spend      REAL NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// AddSpend atomically adds delta to the accumulator at key and returns
// the new total. The select/check/upsert runs in one transaction on the
// store's only connection, so concurrent callers cannot interleave.
func (s *Store) AddSpend(ctx context.Context, key string, delta float64) (float64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &db.Error{Op: db.OpAddSpend, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	var current float64
	err = tx.QueryRowContext(ctx,
		`SELECT spend FROM ledger_entries WHERE key = ?`, key,
	).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, &db.Error{Op: db.OpAddSpend, Err: err}
	}

	total := current + delta
	if total < 0 {
		return 0, db.ErrNegativeBalance
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (key, spend, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			spend = excluded.spend,
			updated_at = excluded.updated_at
	`, key, total, time.Now().UnixMilli())
	if err != nil {
		return 0, &db.Error{Op: db.OpAddSpend, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return 0, &db.Error{Op: db.OpAddSpend, Err: err}
	}
	return total, nil
}

// GetSpend returns the accumulator value at key.
// Returns db.ErrKeyNotFound when the entry does not exist yet.
func (s *Store) GetSpend(ctx context.Context, key string) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		`SELECT spend FROM ledger_entries WHERE key = ?`, key,
	).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, db.ErrKeyNotFound
	}
	if err != nil {
		return 0, &db.Error{Op: db.OpGetSpend, Err: err}
	}
	return total, nil
}

// GetSpendEntry returns the accumulator value and last-update timestamp
// at key. Returns db.ErrKeyNotFound when the entry does not exist yet.
func (s *Store) GetSpendEntry(ctx context.Context, key string) (db.SpendEntry, error) {
	var entry db.SpendEntry
	err := s.db.QueryRowContext(ctx,
		`SELECT spend, updated_at FROM ledger_entries WHERE key = ?`, key,
	).Scan(&entry.Spend, &entry.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return db.SpendEntry{}, db.ErrKeyNotFound
	}
	if err != nil {
		return db.SpendEntry{}, &db.Error{Op: db.OpGetSpend, Err: err}
	}
	return entry, nil
}

// Ping checks database availability.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close checkpoints the WAL and closes the database.
func (s *Store) Close() {
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	_ = s.db.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
// A local file store is normally ready immediately.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.Ping(ctx); err == nil {
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}
