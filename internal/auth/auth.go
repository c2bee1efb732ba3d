// Package auth implements user accounts and session tokens: bcrypt
// password hashing, JWT issuance/verification, and a Postgres-backed user
// store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmailTaken is returned when signing up with an email that
	// already has an account.
	ErrEmailTaken = errors.New("an account with this email already exists")

	// ErrInvalidCredentials is returned for an unknown email or a wrong
	// password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound is returned when a user id resolves to nothing.
	ErrUserNotFound = errors.New("user not found")

	// ErrValidation wraps signup parameter problems so callers can map
	// them to a client error without string matching.
	ErrValidation = errors.New("invalid signup parameters")
)

// bcryptCost matches the work factor the original deployment used.
const bcryptCost = 10

// User is an account. PasswordHash never leaves this package's store
// implementations and is excluded from JSON.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	MiddleName   string    `json:"middleName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Website      string    `json:"website,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserStore persists accounts. The Postgres implementation lives in
// postgres.go; tests use an in-memory fake.
type UserStore interface {
	// CreateUser inserts a new user and returns it with ID and
	// CreatedAt populated. Returns ErrEmailTaken on a duplicate email.
	CreateUser(ctx context.Context, u User) (User, error)

	// UserByEmail returns ErrUserNotFound when no account matches.
	UserByEmail(ctx context.Context, email string) (User, error)

	// UserByID returns ErrUserNotFound when no account matches.
	UserByID(ctx context.Context, id string) (User, error)
}

// SignupParams carries the fields a new account needs.
type SignupParams struct {
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Website    string `json:"website"`
}

// Service is the account/session façade the web layer talks to.
type Service struct {
	store  UserStore
	tokens *TokenIssuer
}

// NewService wires a Service.
func NewService(store UserStore, tokens *TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens}
}

// SignUp creates an account with a bcrypt-hashed password.
func (s *Service) SignUp(ctx context.Context, p SignupParams) (User, error) {
	p.Email = strings.TrimSpace(strings.ToLower(p.Email))
	p.Username = strings.TrimSpace(p.Username)

	switch {
	case p.Email == "":
		return User{}, fmt.Errorf("%w: email is required", ErrValidation)
	case p.Username == "":
		return User{}, fmt.Errorf("%w: username is required", ErrValidation)
	case len(p.Password) < 8:
		return User{}, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	case strings.TrimSpace(p.FirstName) == "":
		return User{}, fmt.Errorf("%w: first name is required", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	return s.store.CreateUser(ctx, User{
		FirstName:    strings.TrimSpace(p.FirstName),
		MiddleName:   strings.TrimSpace(p.MiddleName),
		LastName:     strings.TrimSpace(p.LastName),
		Email:        p.Email,
		Username:     p.Username,
		Website:      strings.TrimSpace(p.Website),
		PasswordHash: string(hash),
	})
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	u, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", User{}, ErrInvalidCredentials
		}
		return "", User{}, fmt.Errorf("look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", User{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", User{}, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

// CurrentUser resolves a bearer token to its account.
func (s *Service) CurrentUser(ctx context.Context, token string) (User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return User{}, err
	}
	return s.store.UserByID(ctx, userID)
}

// UserByID resolves an already-authenticated user id to its account.
func (s *Service) UserByID(ctx context.Context, userID string) (User, error) {
	return s.store.UserByID(ctx, userID)
}

// VerifyToken exposes token verification for middleware.
func (s *Service) VerifyToken(token string) (userID string, err error) {
	return s.tokens.Verify(token)
}
