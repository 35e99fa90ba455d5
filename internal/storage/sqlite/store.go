package sqlite

import (
	"database/sql"

	"github.com/geoplaces/core/internal/storage/pool"

	// Pure-Go SQLite driver; no cgo required.
	_ "modernc.org/sqlite"
)

// Store implements every repository interface in
// internal/repositories against one SQLite database.
type Store struct {
	pool *pool.Pool
}

// Open opens (or creates) the SQLite database at dsn and migrates it.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	// SQLite tolerates only one writer at a time; the pool's RWMutex
	// does the serialization we want, so a single connection avoids
	// fighting the driver's own busy-retry logic under concurrent use.
	db.SetMaxOpenConns(1)
	return &Store{pool: pool.New(db)}, nil
}

// NewFromPool wraps an already-open pool (e.g. for an in-memory test
// database set up by the caller).
func NewFromPool(p *pool.Pool) *Store {
	return &Store{pool: p}
}

// Pool exposes the underlying connection pool, e.g. for flows that
// need to open their own cross-repository transaction.
func (s *Store) Pool() *pool.Pool { return s.pool }

// Close closes the underlying database.
func (s *Store) Close() error { return s.pool.Close() }
