package catalog

import (
	"context"
	"database/sql"
	"errors"
	"path"

	"github.com/lodosgroup/lpm/internal/lpmerr"
	"github.com/lodosgroup/lpm/internal/manifest"
	"github.com/lodosgroup/lpm/internal/version"
)

// InstalledPackage is a row from the packages table joined with its
// Files, as returned by LoadPkgByName.
type InstalledPackage struct {
	ID            int64
	Name          string
	GroupID       string
	SrcPkgID      sql.NullInt64
	InstalledSize int64
	Version       version.Version
	Files         []InstalledFile
}

// InstalledFile is a row from the files table.
type InstalledFile struct {
	ID                int64
	Name              string
	AbsolutePath      string
	Checksum          string
	ChecksumAlgorithm string
	PackageID         int64
}

// InsertPkg inserts a new packages row for meta/ver under groupID. It
// fails with lpmerr.AlreadyInstalled if the name is already taken.
func (s *Store) InsertPkg(ctx context.Context, meta manifest.Meta, ver version.Version, groupID string) (int64, error) {
	if _, err := s.LoadPkgByName(ctx, meta.Name); err == nil {
		return 0, &lpmerr.PackageError{Kind: lpmerr.AlreadyInstalled, Name: meta.Name}
	} else if !isDoesNotExist(err) {
		return 0, err
	}

	res, err := s.conn().ExecContext(ctx, `
		INSERT INTO packages (name, group_id, installed_size, v_major, v_minor, v_patch, v_tag, v_readable)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.Name, groupID, meta.InstalledSize, ver.Major, ver.Minor, ver.Patch, nullableTag(ver.Tag), ver.Readable)
	if err != nil {
		return 0, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "INSERT INTO packages", Reason: err.Error()}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "LastInsertId", Reason: err.Error()}
	}
	return id, nil
}

// SetSrcPkgID records that pkgID was installed as a dependency pulled
// in on behalf of rootPkgID, the root of its closure.
func (s *Store) SetSrcPkgID(ctx context.Context, pkgID int64, rootPkgID sql.NullInt64) error {
	if _, err := s.conn().ExecContext(ctx, `UPDATE packages SET src_pkg_id = ? WHERE id = ?`, rootPkgID, pkgID); err != nil {
		return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "UPDATE packages SET src_pkg_id", Reason: err.Error()}
	}
	return nil
}

// InsertFiles inserts one files row per entry, all pointing at pkgID.
func (s *Store) InsertFiles(ctx context.Context, pkgID int64, files manifest.Files) error {
	stmt := `INSERT INTO files (name, absolute_path, checksum, checksum_algorithm, package_id) VALUES (?, ?, ?, ?, ?)`
	for _, f := range files {
		if _, err := s.conn().ExecContext(ctx, stmt, path.Base(f.Path), f.AbsolutePath(), f.Checksum, f.ChecksumAlgorithm, pkgID); err != nil {
			return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "INSERT INTO files", Reason: err.Error()}
		}
	}
	return nil
}

// LoadPkgByName loads an installed package and its files. It fails with
// lpmerr.DoesNotExist if no package by that name is installed.
func (s *Store) LoadPkgByName(ctx context.Context, name string) (InstalledPackage, error) {
	var pkg InstalledPackage
	var tag sql.NullString

	row := s.conn().QueryRowContext(ctx, `
		SELECT id, name, group_id, src_pkg_id, installed_size, v_major, v_minor, v_patch, v_tag, v_readable
		FROM packages WHERE name = ?`, name)

	if err := row.Scan(&pkg.ID, &pkg.Name, &pkg.GroupID, &pkg.SrcPkgID, &pkg.InstalledSize,
		&pkg.Version.Major, &pkg.Version.Minor, &pkg.Version.Patch, &tag, &pkg.Version.Readable); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return InstalledPackage{}, &lpmerr.PackageError{Kind: lpmerr.DoesNotExist, Name: name}
		}
		return InstalledPackage{}, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "SELECT packages", Reason: err.Error()}
	}
	pkg.Version.Tag = tag.String
	pkg.Version.Condition = version.Equal

	files, err := s.loadFiles(ctx, pkg.ID)
	if err != nil {
		return InstalledPackage{}, err
	}
	pkg.Files = files

	return pkg, nil
}

func (s *Store) loadFiles(ctx context.Context, pkgID int64) ([]InstalledFile, error) {
	rows, err := s.conn().QueryContext(ctx, `
		SELECT id, name, absolute_path, checksum, checksum_algorithm, package_id
		FROM files WHERE package_id = ?`, pkgID)
	if err != nil {
		return nil, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "SELECT files", Reason: err.Error()}
	}
	defer rows.Close()

	var files []InstalledFile
	for rows.Next() {
		var f InstalledFile
		if err := rows.Scan(&f.ID, &f.Name, &f.AbsolutePath, &f.Checksum, &f.ChecksumAlgorithm, &f.PackageID); err != nil {
			return nil, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "scan files", Reason: err.Error()}
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// UpdatePkg replaces pkgID's version fields and its entire Files set
// with newFiles, within the caller's transaction.
func (s *Store) UpdatePkg(ctx context.Context, pkgID int64, newVer version.Version, newInstalledSize int64, newFiles manifest.Files) error {
	if _, err := s.conn().ExecContext(ctx, `
		UPDATE packages SET v_major=?, v_minor=?, v_patch=?, v_tag=?, v_readable=?, installed_size=?
		WHERE id=?`,
		newVer.Major, newVer.Minor, newVer.Patch, nullableTag(newVer.Tag), newVer.Readable, newInstalledSize, pkgID); err != nil {
		return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "UPDATE packages", Reason: err.Error()}
	}

	if _, err := s.conn().ExecContext(ctx, `DELETE FROM files WHERE package_id = ?`, pkgID); err != nil {
		return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "DELETE FROM files", Reason: err.Error()}
	}

	return s.InsertFiles(ctx, pkgID, newFiles)
}

// DeletePkg removes pkgID's packages row; the files rows cascade.
func (s *Store) DeletePkg(ctx context.Context, pkgID int64) error {
	if _, err := s.conn().ExecContext(ctx, `DELETE FROM packages WHERE id = ?`, pkgID); err != nil {
		return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "DELETE FROM packages", Reason: err.Error()}
	}
	return nil
}

// FindPathOwners returns the names of installed packages that own
// absolutePath. A path is owned by at most one package, but the
// operation returns a slice so a caller can render "not owned by any"
// the same way it renders a single owner.
func (s *Store) FindPathOwners(ctx context.Context, absolutePath string) ([]string, error) {
	rows, err := s.conn().QueryContext(ctx, `
		SELECT p.name FROM packages p
		JOIN files f ON f.package_id = p.id
		WHERE f.absolute_path = ?`, absolutePath)
	if err != nil {
		return nil, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "SELECT path owners", Reason: err.Error()}
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "scan path owners", Reason: err.Error()}
		}
		owners = append(owners, name)
	}
	return owners, rows.Err()
}

func nullableTag(tag string) interface{} {
	if tag == "" {
		return nil
	}
	return tag
}

func isDoesNotExist(err error) bool {
	var pkgErr *lpmerr.PackageError
	return errors.As(err, &pkgErr) && pkgErr.Kind == lpmerr.DoesNotExist
}
