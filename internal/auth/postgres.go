package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

// PostgresUserStore persists users in the users table (see schema.sql).
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

// NewPostgresUserStore wires a store over the shared pool.
func NewPostgresUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

// CreateUser implements UserStore.
func (s *PostgresUserStore) CreateUser(ctx context.Context, u User) (User, error) {
	const q = `
		INSERT INTO users (first_name, middle_name, last_name, email, username, website, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := s.pool.QueryRow(ctx, q,
		u.FirstName, u.MiddleName, u.LastName, u.Email, u.Username, u.Website, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// UserByEmail implements UserStore.
func (s *PostgresUserStore) UserByEmail(ctx context.Context, email string) (User, error) {
	const q = `
		SELECT id, first_name, middle_name, last_name, email, username, website, password_hash, created_at
		FROM users WHERE email = $1`
	return s.scanUser(s.pool.QueryRow(ctx, q, email))
}

// UserByID implements UserStore.
func (s *PostgresUserStore) UserByID(ctx context.Context, id string) (User, error) {
	const q = `
		SELECT id, first_name, middle_name, last_name, email, username, website, password_hash, created_at
		FROM users WHERE id = $1`
	return s.scanUser(s.pool.QueryRow(ctx, q, id))
}

func (s *PostgresUserStore) scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.FirstName, &u.MiddleName, &u.LastName,
		&u.Email, &u.Username, &u.Website, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}
