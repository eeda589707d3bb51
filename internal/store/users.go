package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ayush/todolist/backend/internal/models"
)

// CreateUser inserts a user and returns its id. The username pre-check is a
// fast path; the UNIQUE constraint decides concurrent registrations.
func (s *SQLStore) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	existing, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, ErrConflict
	}

	id, err := s.insert(ctx, `INSERT INTO users (username, password) VALUES (?, ?)`, username, passwordHash)
	if err != nil {
		if s.dialect.uniqueCode(err) {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// GetUserByUsername returns nil, nil when no such user exists.
func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, username, password FROM users WHERE username = ?`, username)
}

// GetUserByID returns nil, nil when no such user exists.
func (s *SQLStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, username, password FROM users WHERE id = ?`, id)
}

func (s *SQLStore) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, s.rebind(query), arg).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// UpdateUser changes only the supplied columns.
func (s *SQLStore) UpdateUser(ctx context.Context, id int64, upd models.UserUpdate) error {
	if upd.Empty() {
		return ErrNoFields
	}
	var set setClause
	if upd.Username != nil {
		set.add("username", *upd.Username)
	}
	if upd.PasswordHash != nil {
		set.add("password", *upd.PasswordHash)
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE users SET `+set.String()+` WHERE id = ?`), append(set.args, id)...)
	if err != nil {
		if s.dialect.uniqueCode(err) {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 for rows whose values did not change.
		u, err := s.GetUserByID(ctx, id)
		if err != nil {
			return err
		}
		if u == nil {
			return ErrNotFound
		}
	}
	return nil
}

// DeleteUser removes the user and all of their tasks.
func (s *SQLStore) DeleteUser(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM tasks WHERE user_id = ?`), id); err != nil {
		return fmt.Errorf("delete user tasks: %w", err)
	}
	res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.dropCache(ctx, id)
	return nil
}
