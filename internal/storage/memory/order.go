// Package memory provides process-lifetime stores guarded by mutexes.
package memory

import (
	"context"
	"strconv"
	"sync"

	"github.com/xenking/kart-orders/internal/domain/auth"
	"github.com/xenking/kart-orders/internal/domain/order"
)

// DefaultOrderIDPrefix is prepended to the order sequence number.
const DefaultOrderIDPrefix = "o-"

var _ order.Store = (*OrderStore)(nil)

// OrderStore is an append-only, in-memory order.Store. The sequence counter,
// the ordered slice and the id index share one mutex, so allocating an id
// and appending the order are observed as a single step.
type OrderStore struct {
	prefix string

	mu     sync.RWMutex
	seq    int
	orders []*order.Order
	byID   map[string]int
}

// NewOrderStore returns an empty store issuing ids prefix+1, prefix+2, ...
func NewOrderStore(prefix string) *OrderStore {
	return &OrderStore{
		prefix: prefix,
		byID:   make(map[string]int),
	}
}

// Create assigns the next id to o and appends a copy of it.
func (s *OrderStore) Create(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	o.ID = s.prefix + strconv.Itoa(s.seq)

	s.byID[o.ID] = len(s.orders)
	s.orders = append(s.orders, o.Clone())
	return nil
}

// Get returns a copy of the order when both id and owner match, and
// order.ErrNotFound otherwise.
func (s *OrderStore) Get(_ context.Context, id string, owner auth.Identity) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok || s.orders[i].Owner != owner {
		return nil, order.ErrNotFound
	}
	return s.orders[i].Clone(), nil
}

// ListByOwner returns copies of owner's orders in creation order.
func (s *OrderStore) ListByOwner(_ context.Context, owner auth.Identity) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]order.Order, 0)
	for _, o := range s.orders {
		if o.Owner == owner {
			out = append(out, *o.Clone())
		}
	}
	return out, nil
}

// Len returns the number of stored orders across all owners.
func (s *OrderStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}
