package auth

import (
	"crypto/hmac"
	"crypto/sha256"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultContext is the context label mixed into the signing key. Services
// that must accept each other's tokens have to share both the secret and
// this label.
const DefaultContext = "user-auth"

var (
	// ErrInvalidToken is returned by Verify for every token that cannot be
	// trusted: malformed encoding, foreign secret or context, tampered payload
	// or missing identity claim.
	ErrInvalidToken = errors.New("invalid token")
	// ErrEmptySecret is returned by NewCodec when no secret is configured.
	ErrEmptySecret = errors.New("token secret is required")
	// ErrEmptyIdentity is returned by Issue for an empty username.
	ErrEmptyIdentity = errors.New("identity is required")
)

// claims is the token payload. "u" carries the identity and "jti" a random
// nonce so that two tokens for the same identity differ. There is no expiry.
type claims struct {
	User string `json:"u"`
	jwt.RegisteredClaims
}

// Verifier checks a raw token and returns the identity it was issued for.
type Verifier interface {
	Verify(token string) (Identity, error)
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithContext overrides the context label used for key derivation.
func WithContext(label string) CodecOption {
	return func(c *Codec) {
		c.context = label
	}
}

// Codec issues and verifies HS256 tokens. A Codec is immutable and safe for
// concurrent use.
type Codec struct {
	context string
	key     []byte
}

var _ Verifier = (*Codec)(nil)

// NewCodec creates a Codec for the given shared secret. Rotating the secret
// invalidates every token issued with the previous one.
func NewCodec(secret string, opts ...CodecOption) (*Codec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	c := &Codec{context: DefaultContext}
	for _, opt := range opts {
		opt(c)
	}
	c.key = deriveKey(secret, c.context)

	return c, nil
}

// deriveKey binds the signing key to the context label, so the same secret
// used under a different label yields unverifiable tokens.
func deriveKey(secret, context string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(context))
	return mac.Sum(nil)
}

// Issue returns a signed, URL-safe token for the given username.
func (c *Codec) Issue(username string) (string, error) {
	if username == "" {
		return "", ErrEmptyIdentity
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		User: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID: uuid.New().String(),
		},
	})

	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// Verify decodes the token, checks its signature and returns the embedded
// identity. Any failure is reported as an error matching ErrInvalidToken.
func (c *Codec) Verify(token string) (Identity, error) {
	var cl claims
	_, err := jwt.ParseWithClaims(token, &cl, func(*jwt.Token) (any, error) {
		return c.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, errors.Wrap(ErrInvalidToken, err.Error())
	}

	if cl.User == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{username: cl.User}, nil
}
