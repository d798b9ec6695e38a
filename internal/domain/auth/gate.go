package auth

import (
	"strings"

	"github.com/go-faster/errors"
)

// ErrMissingBearer is returned when the credential header is absent or does
// not use the Bearer scheme.
var ErrMissingBearer = errors.New("missing bearer token")

const bearerPrefix = "bearer "

// Gate authenticates requests from the raw value of their Authorization
// header.
type Gate struct {
	verifier Verifier
}

// NewGate creates a Gate that checks tokens with the given verifier.
func NewGate(verifier Verifier) *Gate {
	return &Gate{verifier: verifier}
}

// Authenticate extracts the bearer token from header and verifies it.
// It returns ErrMissingBearer or an error matching ErrInvalidToken; both
// mean the caller is unauthorized.
func (g *Gate) Authenticate(header string) (Identity, error) {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return Identity{}, ErrMissingBearer
	}

	token := strings.TrimSpace(header[len(bearerPrefix):])
	id, err := g.verifier.Verify(token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return Identity{}, err
		}
		return Identity{}, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if id.IsZero() {
		return Identity{}, ErrInvalidToken
	}
	return id, nil
}

// IsUnauthorized reports whether err is one of the gate's rejection errors.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrMissingBearer) || errors.Is(err, ErrInvalidToken)
}
