// internal/adapter/storage/user_store.go

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/shivraj-yadav/ChugLi/internal/domain/identity"
)

// UserStore implements persistent storage for user accounts.
type UserStore struct {
	db *pgxpool.Pool
}

// NewUserStore creates a new user store.
func NewUserStore(db *pgxpool.Pool) *UserStore {
	return &UserStore{db: db}
}

// Save persists a new user.
func (s *UserStore) Save(ctx context.Context, u identity.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, anonymous_handle, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.Exec(ctx, query, u.ID, u.Email, u.PasswordHash, u.AnonymousHandle, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting user: %w", err)
	}

	return nil
}

// FindByEmail retrieves a user by email, or identity.ErrUserNotFound.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	return s.findOne(ctx, `WHERE email = $1`, email)
}

// FindByID retrieves a user by id, or identity.ErrUserNotFound.
func (s *UserStore) FindByID(ctx context.Context, id string) (*identity.User, error) {
	return s.findOne(ctx, `WHERE id = $1`, id)
}

func (s *UserStore) findOne(ctx context.Context, where string, arg interface{}) (*identity.User, error) {
	query := `
		SELECT id, email, password_hash, anonymous_handle, created_at
		FROM users
	` + where

	var u identity.User
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.AnonymousHandle,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("error querying user: %w", err)
	}

	return &u, nil
}

// HandleExists reports whether an anonymous handle is already taken.
func (s *UserStore) HandleExists(ctx context.Context, handle string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE anonymous_handle = $1)`,
		handle,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking handle: %w", err)
	}

	return exists, nil
}
