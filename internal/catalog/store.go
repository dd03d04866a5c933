// Package catalog is the durable local store of installed packages,
// their files, configured repositories, and loaded modules. It wraps a
// single SQLite database file (the "core db") through database/sql and
// the mattn/go-sqlite3 cgo driver, applying the PRAGMAs and migration
// scheme the data model requires.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lodosgroup/lpm/internal/lpmerr"
)

// Store is a handle on the core catalog database. A single Store is not
// safe for concurrent top-level transactions: txMu only guards the tx
// and depth fields, so a Begin from a second caller while a transaction
// is open nests inside it as a SAVEPOINT instead of waiting.
// Parallel installs each own their own Store (see internal/lifecycle).
type Store struct {
	db *sql.DB

	txMu  sync.Mutex
	tx    *sql.Tx
	depth int
}

// Open opens or creates the database file at path, enables the required
// PRAGMAs, and runs pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &lpmerr.IOError{Op: "mkdir", Path: dir, Err: err}
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "open", Reason: err.Error()}
	}

	if _, err := db.ExecContext(ctx, "PRAGMA temp_store=MEMORY;"); err != nil {
		db.Close()
		return nil, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "PRAGMA temp_store=MEMORY", Reason: err.Error()}
	}

	s := &Store{db: db}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// EnableForeignKeys turns on cascade enforcement for the active
// connection. The DSN already sets _foreign_keys=on at Open time; this
// exists so a caller about to run a cascading DELETE can assert it
// explicitly before doing so.
func (s *Store) EnableForeignKeys(ctx context.Context) error {
	if _, err := s.conn().ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "PRAGMA foreign_keys", Reason: err.Error()}
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// execer is satisfied by both *sql.DB and *sql.Tx so CRUD methods can
// run against whichever is active without a type switch at every call
// site.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// conn returns the active transaction if one is open, otherwise the
// plain database handle. Every CRUD method routes through this so it
// works identically inside and outside an explicit Begin/Commit scope.
func (s *Store) conn() execer {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Begin opens a transactional scope. Nested Begin calls on a Store that
// already has an open transaction are realized as SQLite SAVEPOINTs, so
// a helper function can wrap its statements in Begin/Commit regardless
// of whether its caller already holds a transaction.
func (s *Store) Begin(ctx context.Context) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if s.tx == nil {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "BEGIN", Reason: err.Error()}
		}
		s.tx = tx
		s.depth = 1
		return nil
	}

	s.depth++
	sp := savepointName(s.depth)
	if _, err := s.tx.ExecContext(ctx, "SAVEPOINT "+sp); err != nil {
		s.depth--
		return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "SAVEPOINT", Reason: err.Error()}
	}
	return nil
}

// Commit ends the innermost open scope, releasing a SAVEPOINT or
// committing the top-level transaction.
func (s *Store) Commit(ctx context.Context) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if s.tx == nil {
		return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "COMMIT", Reason: "no open transaction"}
	}

	if s.depth == 1 {
		err := s.tx.Commit()
		s.tx = nil
		s.depth = 0
		if err != nil {
			return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "COMMIT", Reason: err.Error()}
		}
		return nil
	}

	sp := savepointName(s.depth)
	s.depth--
	if _, err := s.tx.ExecContext(ctx, "RELEASE "+sp); err != nil {
		return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "RELEASE", Reason: err.Error()}
	}
	return nil
}

// Rollback undoes the innermost open scope.
func (s *Store) Rollback(ctx context.Context) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if s.tx == nil {
		return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "ROLLBACK", Reason: "no open transaction"}
	}

	if s.depth == 1 {
		err := s.tx.Rollback()
		s.tx = nil
		s.depth = 0
		if err != nil {
			return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "ROLLBACK", Reason: err.Error()}
		}
		return nil
	}

	sp := savepointName(s.depth)
	s.depth--
	if _, err := s.tx.ExecContext(ctx, "ROLLBACK TO "+sp); err != nil {
		return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "ROLLBACK TO", Reason: err.Error()}
	}
	if _, err := s.tx.ExecContext(ctx, "RELEASE "+sp); err != nil {
		return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "RELEASE", Reason: err.Error()}
	}
	return nil
}

func savepointName(depth int) string {
	return fmt.Sprintf("lpm_sp_%d", depth)
}
