package auth

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotAuthenticated is returned when an operation needs a signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidCredentials is returned when email or password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when signing up with an email already in use.
	ErrEmailTaken = errors.New("email already registered")
	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for malformed sign-up or profile data.
	ErrInvalidInput = errors.New("invalid input")
)

// DefaultBusinessName is used when a user signs up without naming the business.
const DefaultBusinessName = "Mi Negocio"

// User is an account that owns a catalog, sales and expenses.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	BusinessName string
	CreatedAt    time.Time
}

// Profile is the user-editable part of an account.
type Profile struct {
	UserID       string
	Email        string
	BusinessName string
}

// Session is a signed-in device. Only the HMAC of the bearer token is stored.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
}

// UserRepository persists accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, u User) error
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	UpdateBusinessName(ctx context.Context, userID, name string) (*Profile, error)
}

// SessionRepository persists sign-in sessions keyed by token hash.
type SessionRepository interface {
	CreateSession(ctx context.Context, s Session) error
	FindSessionByHash(ctx context.Context, hash string) (*Session, error)
	DeleteSessionByHash(ctx context.Context, hash string) error
}
