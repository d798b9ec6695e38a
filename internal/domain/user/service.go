package user

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"

	"github.com/xenking/kart-orders/internal/domain/auth"
)

// RegisterRequest holds the input for creating an account.
type RegisterRequest struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
	Name     string
	Email    string
}

// Service encapsulates account business logic.
type Service struct {
	users    Registry
	hasher   PasswordHasher
	tokens   TokenIssuer
	validate *validator.Validate
}

// NewService creates a user Service.
func NewService(users Registry, hasher PasswordHasher, tokens TokenIssuer) *Service {
	return &Service{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register validates and stores a new account. Username, name and email are
// trimmed; the password is used as given.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, ErrCredentialsRequired
		}
		return nil, errors.Wrap(err, "validate registration")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &User{
		Username:     req.Username,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, errors.Wrap(err, "create user")
	}

	return u, nil
}

// Login checks the password of username and returns a bearer token bound to
// the canonical username. Unknown users and wrong passwords are reported
// identically as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)

	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", errors.Wrap(err, "find user")
	}

	if !s.hasher.Check(password, u.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.Username)
	if err != nil {
		return "", errors.Wrap(err, "issue token")
	}
	return token, nil
}

// Profile returns the account bound to a verified identity. A token whose
// user no longer exists yields ErrNotFound.
func (s *Service) Profile(ctx context.Context, id auth.Identity) (*User, error) {
	if id.IsZero() {
		return nil, ErrNotFound
	}

	u, err := s.users.FindByUsername(ctx, id.String())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "find user")
	}
	return u, nil
}
