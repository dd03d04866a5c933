package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lodosgroup/lpm/internal/lpmerr"
)

// Repository is a row from the repositories table.
type Repository struct {
	ID          int64
	Name        string
	Address     string
	IndexDBPath string
	IsActive    bool
}

// InsertRepository adds a repository, failing with
// lpmerr.RepositoryAlreadyExists if name is taken.
func (s *Store) InsertRepository(ctx context.Context, r Repository) (int64, error) {
	if _, err := s.LoadRepositoryByName(ctx, r.Name); err == nil {
		return 0, &lpmerr.RepositoryError{Kind: lpmerr.RepositoryAlreadyExists, Name: r.Name}
	}

	res, err := s.conn().ExecContext(ctx, `
		INSERT INTO repositories (name, address, index_db_path, is_active) VALUES (?, ?, ?, ?)`,
		r.Name, r.Address, r.IndexDBPath, r.IsActive)
	if err != nil {
		return 0, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "INSERT INTO repositories", Reason: err.Error()}
	}
	return res.LastInsertId()
}

// LoadRepositoryByName fails with lpmerr.RepositoryNotFound if absent.
func (s *Store) LoadRepositoryByName(ctx context.Context, name string) (Repository, error) {
	var r Repository
	row := s.conn().QueryRowContext(ctx, `
		SELECT id, name, address, index_db_path, is_active FROM repositories WHERE name = ?`, name)
	if err := row.Scan(&r.ID, &r.Name, &r.Address, &r.IndexDBPath, &r.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Repository{}, &lpmerr.RepositoryError{Kind: lpmerr.RepositoryNotFound, Name: name}
		}
		return Repository{}, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "SELECT repositories", Reason: err.Error()}
	}
	return r, nil
}

// ListActiveRepositories returns every repository with is_active = 1,
// the set the dependency-closure resolver searches.
func (s *Store) ListActiveRepositories(ctx context.Context) ([]Repository, error) {
	rows, err := s.conn().QueryContext(ctx, `
		SELECT id, name, address, index_db_path, is_active FROM repositories WHERE is_active = 1`)
	if err != nil {
		return nil, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "SELECT active repositories", Reason: err.Error()}
	}
	defer rows.Close()

	var repos []Repository
	for rows.Next() {
		var r Repository
		if err := rows.Scan(&r.ID, &r.Name, &r.Address, &r.IndexDBPath, &r.IsActive); err != nil {
			return nil, &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "scan repositories", Reason: err.Error()}
		}
		repos = append(repos, r)
	}
	return repos, rows.Err()
}

// DeleteRepository removes a repository by name.
func (s *Store) DeleteRepository(ctx context.Context, name string) error {
	res, err := s.conn().ExecContext(ctx, `DELETE FROM repositories WHERE name = ?`, name)
	if err != nil {
		return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "DELETE FROM repositories", Reason: err.Error()}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "RowsAffected", Reason: err.Error()}
	}
	if n == 0 {
		return &lpmerr.RepositoryError{Kind: lpmerr.RepositoryNotFound, Name: name}
	}
	return nil
}

// SetRepositoryActive toggles a repository's is_active flag.
func (s *Store) SetRepositoryActive(ctx context.Context, name string, active bool) error {
	res, err := s.conn().ExecContext(ctx, `UPDATE repositories SET is_active = ? WHERE name = ?`, active, name)
	if err != nil {
		return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "UPDATE repositories", Reason: err.Error()}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &lpmerr.DbError{Kind: lpmerr.FailedExecuting, Statement: "RowsAffected", Reason: err.Error()}
	}
	if n == 0 {
		return &lpmerr.RepositoryError{Kind: lpmerr.RepositoryNotFound, Name: name}
	}
	return nil
}
