package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/promptforge/promptforge/pkg/ragstore"
)

// SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

// CreateUser inserts a new account and returns its id. An email already
// present in the table is reported as [ragstore.ErrEmailTaken].
func (s *Store) CreateUser(ctx context.Context, email, credentialHash string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (email, hashed_password)
		 VALUES ($1, $2)
		 RETURNING id`,
		email, credentialHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, fmt.Errorf("create user %q: %w", email, ragstore.ErrEmailTaken)
		}
		return 0, fmt.Errorf("create user %q: %w", email, err)
	}
	return id, nil
}

// GetUser looks up an account by email. Unknown emails are reported as
// [ragstore.ErrNotFound].
func (s *Store) GetUser(ctx context.Context, email string) (*ragstore.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, email, hashed_password, created_at
		 FROM users
		 WHERE email = $1`,
		email,
	)

	var u ragstore.User
	err := row.Scan(&u.ID, &u.Email, &u.CredentialHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get user %q: %w", email, ragstore.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", email, err)
	}
	return &u, nil
}
