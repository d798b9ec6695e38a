// Package user implements registration, login and profile lookup. It is the
// issuing side of the shared bearer token.
package user

import (
	"context"

	"github.com/go-faster/errors"
)

// Sentinel errors returned by the user service and registries.
var (
	ErrNotFound            = errors.New("user not found")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrCredentialsRequired = errors.New("username and password required")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

// User is a registered account. PasswordHash never leaves the service.
type User struct {
	ID           string
	Username     string
	Name         string
	Email        string
	PasswordHash string
}

// Registry stores users keyed by username.
type Registry interface {
	// Create assigns the next user ID and stores u. It returns
	// ErrUsernameTaken when the username is already registered.
	Create(ctx context.Context, u *User) error
	// FindByUsername returns ErrNotFound for unknown usernames.
	FindByUsername(ctx context.Context, username string) (*User, error)
}

// PasswordHasher hashes and checks plaintext passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(password, hash string) bool
}

// TokenIssuer issues bearer tokens for a canonical username.
type TokenIssuer interface {
	Issue(username string) (string, error)
}
