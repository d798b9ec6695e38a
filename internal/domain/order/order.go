package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-orders/internal/domain/auth"
)

// ErrNotFound is returned when an order does not exist or belongs to a
// different owner. Callers cannot tell the two cases apart.
var ErrNotFound = errors.New("order not found")

// Order is a priced, owned collection of lines.
type Order struct {
	ID    string
	Owner auth.Identity
	Lines []Line
	Total decimal.Decimal
}

// Line is a single priced line of an order.
type Line struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Qty       int
	LineTotal decimal.Decimal
}

// Item is a requested line: which product and how many.
type Item struct {
	ProductID string
	Qty       int
}

// Clone returns a deep copy of o.
func (o *Order) Clone() *Order {
	c := *o
	c.Lines = make([]Line, len(o.Lines))
	copy(c.Lines, o.Lines)
	return &c
}

// Store persists orders for the lifetime of the process.
type Store interface {
	// Create assigns the next order ID to o and appends it. Allocation and
	// append happen as one atomic step.
	Create(ctx context.Context, o *Order) error
	// Get returns the order only when both id and owner match.
	Get(ctx context.Context, id string, owner auth.Identity) (*Order, error)
	// ListByOwner returns every order of owner in creation order.
	ListByOwner(ctx context.Context, owner auth.Identity) ([]Order, error)
}
