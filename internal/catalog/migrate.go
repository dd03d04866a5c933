package catalog

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/lodosgroup/lpm/internal/lpmerr"
)

// migration is one idempotent schema step, applied in ascending Version
// order inside its own transaction. Schema version is tracked with
// SQLite's PRAGMA user_version, matching the original core db's
// migration bookkeeping.
type migration struct {
	Version int
	SQL     string
}

var migrations = []migration{
	{
		Version: 1,
		SQL: `
			CREATE TABLE repositories (
				id             INTEGER   PRIMARY KEY AUTOINCREMENT,
				name           TEXT      NOT NULL UNIQUE,
				address        TEXT      NOT NULL,
				index_db_path  TEXT      NOT NULL,
				is_active      BOOLEAN   NOT NULL CHECK(is_active IN (0, 1)),
				created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			);

			CREATE TABLE packages (
				id             INTEGER   PRIMARY KEY AUTOINCREMENT,
				name           TEXT      NOT NULL UNIQUE,
				group_id       TEXT      NOT NULL,
				src_pkg_id     INTEGER   REFERENCES packages(id) ON DELETE SET NULL,
				installed_size INTEGER   NOT NULL,
				v_major        INTEGER   NOT NULL,
				v_minor        INTEGER   NOT NULL,
				v_patch        INTEGER   NOT NULL,
				v_tag          TEXT,
				v_readable     TEXT      NOT NULL,
				created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			);

			CREATE TABLE files (
				id                 INTEGER   PRIMARY KEY AUTOINCREMENT,
				name               TEXT      NOT NULL,
				absolute_path      TEXT      NOT NULL UNIQUE,
				checksum           TEXT      NOT NULL,
				checksum_algorithm TEXT      NOT NULL,
				package_id         INTEGER   NOT NULL,
				created_at         TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,

				FOREIGN KEY(package_id) REFERENCES packages(id) ON DELETE CASCADE
			);

			CREATE TABLE modules (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				name       TEXT    NOT NULL UNIQUE,
				dylib_path TEXT    NOT NULL
			);

			CREATE TABLE suggestions (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				package_id INTEGER NOT NULL,
				name       TEXT    NOT NULL,
				v_major    INTEGER,
				v_minor    INTEGER,
				v_patch    INTEGER,
				v_tag      TEXT,
				v_readable TEXT,

				FOREIGN KEY(package_id) REFERENCES packages(id) ON DELETE CASCADE
			);
		`,
	},
	{
		Version: 2,
		SQL: `
			CREATE TRIGGER repositories_update_trigger
				AFTER UPDATE ON repositories
			BEGIN
				UPDATE repositories SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
			END;

			CREATE TRIGGER packages_update_trigger
				AFTER UPDATE ON packages
			BEGIN
				UPDATE packages SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
			END;
		`,
	},
}

// Migrate applies every migration whose Version exceeds the database's
// current PRAGMA user_version. Safe to call on every Open: migrations
// already applied are skipped.
func (s *Store) Migrate(ctx context.Context) error {
	current, err := s.userVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return &lpmerr.DbError{Kind: lpmerr.MigrationError, Statement: "BEGIN", Reason: err.Error()}
		}

		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			tx.Rollback()
			return &lpmerr.DbError{Kind: lpmerr.MigrationError, Statement: m.SQL, Reason: err.Error()}
		}

		if err := s.setUserVersion(ctx, tx, m.Version); err != nil {
			tx.Rollback()
			return err
		}

		if err := tx.Commit(); err != nil {
			return &lpmerr.DbError{Kind: lpmerr.MigrationError, Statement: "COMMIT", Reason: err.Error()}
		}
	}

	return nil
}

func (s *Store) userVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version;").Scan(&v); err != nil {
		return 0, &lpmerr.DbError{Kind: lpmerr.MigrationError, Statement: "PRAGMA user_version", Reason: err.Error()}
	}
	return v, nil
}

func (s *Store) setUserVersion(ctx context.Context, tx *sql.Tx, v int) error {
	if _, err := tx.ExecContext(ctx, fmtPragmaUserVersion(v)); err != nil {
		return &lpmerr.DbError{Kind: lpmerr.MigrationError, Statement: "PRAGMA user_version=", Reason: err.Error()}
	}
	return nil
}

func fmtPragmaUserVersion(v int) string {
	// PRAGMA doesn't support bound parameters, so the value is formatted
	// directly; v always originates from this package's own migration
	// table, never from user input.
	return "PRAGMA user_version = " + strconv.Itoa(v) + ";"
}
