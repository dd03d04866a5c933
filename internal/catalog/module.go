package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lodosgroup/lpm/internal/lpmerr"
)

// Module is a row from the modules table: a named dynamic library that
// internal/module loads and invokes on request from the CLI's module
// verb. The lifecycle engine never triggers modules itself.
type Module struct {
	ID        int64
	Name      string
	DylibPath string
}

// InsertModule registers a module.
func (s *Store) InsertModule(ctx context.Context, name, dylibPath string) (int64, error) {
	res, err := s.conn().ExecContext(ctx, `INSERT INTO modules (name, dylib_path) VALUES (?, ?)`, name, dylibPath)
	if err != nil {
		return 0, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "INSERT INTO modules", Reason: err.Error()}
	}
	return res.LastInsertId()
}

// DeleteModule removes a module by name.
func (s *Store) DeleteModule(ctx context.Context, name string) error {
	if _, err := s.conn().ExecContext(ctx, `DELETE FROM modules WHERE name = ?`, name); err != nil {
		return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "DELETE FROM modules", Reason: err.Error()}
	}
	return nil
}

// LoadModuleByName fails with lpmerr.ModuleInternal if absent.
func (s *Store) LoadModuleByName(ctx context.Context, name string) (Module, error) {
	var m Module
	row := s.conn().QueryRowContext(ctx, `SELECT id, name, dylib_path FROM modules WHERE name = ?`, name)
	if err := row.Scan(&m.ID, &m.Name, &m.DylibPath); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Module{}, &lpmerr.ModuleError{Kind: lpmerr.ModuleInternal, Path: name, Reason: "module not registered"}
		}
		return Module{}, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "SELECT modules", Reason: err.Error()}
	}
	return m, nil
}

// ListModules returns every registered module.
func (s *Store) ListModules(ctx context.Context) ([]Module, error) {
	rows, err := s.conn().QueryContext(ctx, `SELECT id, name, dylib_path FROM modules`)
	if err != nil {
		return nil, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "SELECT modules", Reason: err.Error()}
	}
	defer rows.Close()

	var mods []Module
	for rows.Next() {
		var m Module
		if err := rows.Scan(&m.ID, &m.Name, &m.DylibPath); err != nil {
			return nil, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "scan modules", Reason: err.Error()}
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}
