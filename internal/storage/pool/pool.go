// Package pool provides a readers/writer-locked wrapper over a single
// *sql.DB, exposing shared (multi-reader) and exclusive (single-writer)
// access plus a transaction combinator. It compensates for storage
// engines (SQLite in particular) that serialize writers internally:
// by explicitly serializing at this layer, a busy/locked error from
// the driver never escapes to a caller.
package pool

import (
	"context"
	"database/sql"
	"sync"
)

// Reader is the read-only handle returned by Shared.
type Reader interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Writer is the read-write handle returned by Exclusive and passed to
// Transaction's callback.
type Writer interface {
	Reader
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Pool fronts a *sql.DB with an explicit sync.RWMutex so that shared
// reads may run concurrently while writes are strictly serialized at
// the application layer, independent of whatever locking the
// underlying driver does internally.
type Pool struct {
	mu sync.RWMutex
	db *sql.DB
}

// New wraps an already-open *sql.DB.
func New(db *sql.DB) *Pool {
	return &Pool{db: db}
}

// DB exposes the underlying handle for migration/bootstrap code that
// runs before any concurrent access is possible.
func (p *Pool) DB() *sql.DB { return p.db }

// Close closes the underlying database handle.
func (p *Pool) Close() error { return p.db.Close() }

// Shared acquires a read-guard and returns a Reader plus a release
// function the caller must invoke (typically via defer) once done.
func (p *Pool) Shared(ctx context.Context) (Reader, func(), error) {
	p.mu.RLock()
	return p.db, func() { p.mu.RUnlock() }, nil
}

// Exclusive acquires a write-guard and returns a Writer plus a release
// function the caller must invoke once done.
func (p *Pool) Exclusive(ctx context.Context) (Writer, func(), error) {
	p.mu.Lock()
	return p.db, func() { p.mu.Unlock() }, nil
}

// Transaction acquires exclusive access, opens a *sql.Tx, and runs fn
// against it. On fn returning nil the transaction commits; on any
// error (including a panic, which is re-raised after rollback) it
// rolls back. The multi-statement write methods of sqlite.Store run
// through it, so the statements of one such call either all commit or
// none do. Flows call several Store methods in turn and are not
// wrapped in one Transaction: each call commits on its own.
func (p *Pool) Transaction(ctx context.Context, fn func(Writer) error) (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
