package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/storefront-picks/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Options tunes the catalog-wide supplier queries.
type Options struct {
	// SupplierLimit caps the number of products each supplier returns.
	SupplierLimit int
	// LowStockThreshold is the highest quantity still considered "running out".
	LowStockThreshold int
}

// DefaultOptions returns the default storage options.
func DefaultOptions() Options {
	return Options{
		SupplierLimit:     20,
		LowStockThreshold: 5,
	}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// catalogReader implements the read side of the catalog over any queryer.
type catalogReader struct {
	q    queryer
	opts Options
}

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	catalogReader
	db     *sql.DB
	dbPath string
}

var _ service.Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	return NewSQLiteStorageWithOptions(dbPath, DefaultOptions())
}

// NewSQLiteStorageWithOptions creates a new SQLite storage instance with custom supplier options.
func NewSQLiteStorageWithOptions(dbPath string, opts Options) (*SQLiteStorage, error) {
	// Validate input
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	// Ensure directory exists
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Open database
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite doesn't benefit from multiple connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		catalogReader: catalogReader{q: db, opts: opts},
		db:            db,
		dbPath:        dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Path returns the database file the storage was opened with.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// BeginSnapshot starts a read-only transaction that serves every catalog read
// until Rollback is called. The storage holds a single connection, so callers
// must not use the storage itself while a snapshot is open.
func (s *SQLiteStorage) BeginSnapshot(ctx context.Context) (service.Snapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot: %w", err)
	}

	return &sqliteSnapshot{
		catalogReader: catalogReader{q: tx, opts: s.opts},
		tx:            tx,
	}, nil
}

// sqliteSnapshot wraps sql.Tx to implement service.Snapshot.
type sqliteSnapshot struct {
	catalogReader
	tx *sql.Tx
}

var _ service.Snapshot = (*sqliteSnapshot)(nil)

func (t *sqliteSnapshot) Rollback() error {
	return t.tx.Rollback()
}
