package user

import (
	"context"
	"strconv"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-orders/internal/domain/auth"
)

// --- Mock implementations ---

type mockRegistry struct {
	users   map[string]*User
	findErr error
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{users: make(map[string]*User)}
}

func (m *mockRegistry) Create(_ context.Context, u *User) error {
	if _, ok := m.users[u.Username]; ok {
		return ErrUsernameTaken
	}
	u.ID = strconv.Itoa(len(m.users) + 1)
	cp := *u
	m.users[u.Username] = &cp
	return nil
}

func (m *mockRegistry) FindByUsername(_ context.Context, username string) (*User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// plainHasher prefixes passwords so tests stay fast and deterministic.
type plainHasher struct {
	err error
}

func (h plainHasher) Hash(password string) (string, error) {
	return "hashed:" + password, h.err
}

func (h plainHasher) Check(password, hash string) bool {
	return hash == "hashed:"+password
}

// --- Helpers ---

func newTestService(t *testing.T, reg Registry) (*Service, *auth.Codec) {
	t.Helper()
	codec, err := auth.NewCodec("user-test-secret")
	require.NoError(t, err)
	return NewService(reg, plainHasher{}, codec), codec
}

// --- Tests ---

func TestRegister(t *testing.T) {
	svc, _ := newTestService(t, newMockRegistry())

	u, err := svc.Register(context.Background(), RegisterRequest{
		Username: "  alice ",
		Password: "pw",
		Name:     " Alice ",
		Email:    "alice@example.com ",
	})
	require.NoError(t, err)

	assert.Equal(t, "1", u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "hashed:pw", u.PasswordHash)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{name: "missing username", req: RegisterRequest{Password: "pw"}},
		{name: "blank username", req: RegisterRequest{Username: "   ", Password: "pw"}},
		{name: "missing password", req: RegisterRequest{Username: "alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, newMockRegistry())
			_, err := svc.Register(context.Background(), tt.req)
			require.ErrorIs(t, err, ErrCredentialsRequired)
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	svc, _ := newTestService(t, newMockRegistry())

	_, err := svc.Register(context.Background(), RegisterRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterRequest{Username: "alice", Password: "other"})
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegister_HashError(t *testing.T) {
	codec, err := auth.NewCodec("user-test-secret")
	require.NoError(t, err)
	svc := NewService(newMockRegistry(), plainHasher{err: errors.New("boom")}, codec)

	_, err = svc.Register(context.Background(), RegisterRequest{Username: "alice", Password: "pw"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hash password")
}

func TestLogin(t *testing.T) {
	svc, codec := newTestService(t, newMockRegistry())
	_, err := svc.Register(context.Background(), RegisterRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	t.Run("valid credentials issue a token for the username", func(t *testing.T) {
		tok, err := svc.Login(context.Background(), " alice ", "pw")
		require.NoError(t, err)

		id, err := codec.Verify(tok)
		require.NoError(t, err)
		assert.Equal(t, "alice", id.String())
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "alice", "nope")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "mallory", "pw")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLogin_RegistryError(t *testing.T) {
	reg := newMockRegistry()
	reg.findErr = errors.New("db down")
	svc, _ := newTestService(t, reg)

	_, err := svc.Login(context.Background(), "alice", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestProfile(t *testing.T) {
	svc, codec := newTestService(t, newMockRegistry())
	_, err := svc.Register(context.Background(), RegisterRequest{Username: "alice", Password: "pw", Name: "Alice"})
	require.NoError(t, err)

	verify := func(name string) auth.Identity {
		tok, err := codec.Issue(name)
		require.NoError(t, err)
		id, err := codec.Verify(tok)
		require.NoError(t, err)
		return id
	}

	u, err := svc.Profile(context.Background(), verify("alice"))
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)

	_, err = svc.Profile(context.Background(), verify("ghost"))
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Profile(context.Background(), auth.Identity{})
	require.ErrorIs(t, err, ErrNotFound)
}
