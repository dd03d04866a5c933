// Package repoindex queries per-repository package index databases and
// resolves a package's full dependency closure across the set of active
// repositories.
package repoindex

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lodosgroup/lpm/internal/lpmerr"
	"github.com/lodosgroup/lpm/internal/version"
)

// Index is a read path over one repository's index database: the set of
// packages it offers and their mandatory dependency lists.
type Index struct {
	// RepositoryID is the owning repositories.id from the catalog,
	// ascending order of which establishes "first active repository
	// wins" in Resolve's tie-break.
	RepositoryID int64
	Name         string

	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS packages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT    NOT NULL,
	v_major    INTEGER NOT NULL,
	v_minor    INTEGER NOT NULL,
	v_patch    INTEGER NOT NULL,
	v_tag      TEXT,
	v_readable TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS dependencies (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	package_id INTEGER NOT NULL,
	name       TEXT    NOT NULL,
	condition  TEXT    NOT NULL,
	v_major    INTEGER NOT NULL,
	v_minor    INTEGER NOT NULL,
	v_patch    INTEGER NOT NULL,
	v_tag      TEXT,
	v_readable TEXT    NOT NULL,

	FOREIGN KEY(package_id) REFERENCES packages(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS packages_name_idx ON packages(name);
`

// Open opens the index database at path (creating the schema if
// absent) and tags the handle with its owning repositoryID/name.
func Open(ctx context.Context, path string, repositoryID int64, name string) (*Index, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &lpmerr.IOError{Op: "mkdir", Path: dir, Err: err}
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "open index db", Reason: err.Error()}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, &lpmerr.DbError{Kind: lpmerr.MigrationError, Statement: schema, Reason: err.Error()}
	}

	return &Index{RepositoryID: repositoryID, Name: name, db: db}, nil
}

// Close closes the underlying database handle.
func (idx *Index) Close() error { return idx.db.Close() }

// GetPackage returns the highest-version candidate in this index
// satisfying constraint, or ok=false if none does.
func (idx *Index) GetPackage(ctx context.Context, name string, constraint version.Version) (version.Version, bool, error) {
	rows, err := idx.db.QueryContext(ctx, `
		SELECT v_major, v_minor, v_patch, v_tag, v_readable FROM packages
		WHERE name = ? ORDER BY v_major DESC, v_minor DESC, v_patch DESC`, name)
	if err != nil {
		return version.Version{}, false, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "SELECT packages", Reason: err.Error()}
	}
	defer rows.Close()

	for rows.Next() {
		var v version.Version
		var tag sql.NullString
		if err := rows.Scan(&v.Major, &v.Minor, &v.Patch, &tag, &v.Readable); err != nil {
			return version.Version{}, false, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "scan packages", Reason: err.Error()}
		}
		v.Tag = tag.String
		v.Condition = version.Equal

		if version.Satisfies(v, constraint) {
			return v, true, nil
		}
	}
	return version.Version{}, false, rows.Err()
}

// GetMandatoryDependencies returns "name@<op><version>" strings for
// every dependency row of the package named name at exactly ver.
func (idx *Index) GetMandatoryDependencies(ctx context.Context, name string, ver version.Version) ([]string, error) {
	var pkgID int64
	row := idx.db.QueryRowContext(ctx, `
		SELECT id FROM packages WHERE name = ? AND v_major = ? AND v_minor = ? AND v_patch = ? AND IFNULL(v_tag,'') = IFNULL(?,'')`,
		name, ver.Major, ver.Minor, ver.Patch, nullableTag(ver.Tag))
	if err := row.Scan(&pkgID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "SELECT package id", Reason: err.Error()}
	}

	rows, err := idx.db.QueryContext(ctx, `
		SELECT name, condition, v_major, v_minor, v_patch, v_tag, v_readable FROM dependencies WHERE package_id = ?`, pkgID)
	if err != nil {
		return nil, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "SELECT dependencies", Reason: err.Error()}
	}
	defer rows.Close()

	var deps []string
	for rows.Next() {
		var depName, cond string
		var v version.Version
		var tag sql.NullString
		if err := rows.Scan(&depName, &cond, &v.Major, &v.Minor, &v.Patch, &tag, &v.Readable); err != nil {
			return nil, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "scan dependencies", Reason: err.Error()}
		}
		v.Tag = tag.String
		v.Condition = version.Condition(cond)
		deps = append(deps, depName+"@"+v.String())
	}
	return deps, rows.Err()
}

// InsertPackage is a test/tooling helper for populating an index
// database; production index databases are built by a separate
// publishing tool out of this engine's scope (§1).
func (idx *Index) InsertPackage(ctx context.Context, name string, ver version.Version, deps []struct {
	Name string
	Ver  version.Version
}) error {
	res, err := idx.db.ExecContext(ctx, `
		INSERT INTO packages (name, v_major, v_minor, v_patch, v_tag, v_readable) VALUES (?, ?, ?, ?, ?, ?)`,
		name, ver.Major, ver.Minor, ver.Patch, nullableTag(ver.Tag), ver.Readable)
	if err != nil {
		return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "INSERT INTO packages", Reason: err.Error()}
	}
	pkgID, err := res.LastInsertId()
	if err != nil {
		return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "LastInsertId", Reason: err.Error()}
	}

	for _, d := range deps {
		cond := d.Ver.Condition
		if cond == "" {
			cond = version.Equal
		}
		if _, err := idx.db.ExecContext(ctx, `
			INSERT INTO dependencies (package_id, name, condition, v_major, v_minor, v_patch, v_tag, v_readable)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			pkgID, d.Name, string(cond), d.Ver.Major, d.Ver.Minor, d.Ver.Patch, nullableTag(d.Ver.Tag), d.Ver.Readable); err != nil {
			return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "INSERT INTO dependencies", Reason: err.Error()}
		}
	}
	return nil
}

func nullableTag(tag string) interface{} {
	if tag == "" {
		return nil
	}
	return tag
}
