package memory

import (
	"context"
	"strconv"
	"sync"

	"github.com/xenking/kart-orders/internal/domain/user"
)

var _ user.Registry = (*UserRegistry)(nil)

// UserRegistry is an in-memory user.Registry keyed by username.
type UserRegistry struct {
	mu    sync.RWMutex
	seq   int
	users map[string]user.User
}

// NewUserRegistry returns an empty registry. User ids start at "1".
func NewUserRegistry() *UserRegistry {
	return &UserRegistry{users: make(map[string]user.User)}
}

// Create stores u under its username and assigns it the next id.
func (r *UserRegistry) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.Username]; ok {
		return user.ErrUsernameTaken
	}

	r.seq++
	u.ID = strconv.Itoa(r.seq)
	r.users[u.Username] = *u
	return nil
}

// FindByUsername returns a copy of the stored user.
func (r *UserRegistry) FindByUsername(_ context.Context, username string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[username]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}
