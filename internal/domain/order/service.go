package order

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/kart-orders/internal/domain/auth"
	"github.com/xenking/kart-orders/internal/domain/money"
	"github.com/xenking/kart-orders/internal/domain/product"
)

// Sentinel errors for order validation.
var (
	ErrEmptyCart      = errors.New("items required")
	ErrAnonymousOwner = errors.New("order owner is required")
)

// InvalidItemError indicates the first item of a request that references an
// unknown product or carries a non-positive quantity.
type InvalidItemError struct {
	Index int
	Item  Item
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("invalid item %d: product_id=%q qty=%d", e.Index, e.Item.ProductID, e.Item.Qty)
}

// Catalog looks up products by ID.
type Catalog interface {
	Get(id string) (product.Product, bool)
}

// Service encapsulates order placement and lookup.
type Service struct {
	catalog Catalog
	orders  Store
	created metric.Int64Counter
}

// NewService creates an order Service with the required domain dependencies.
func NewService(catalog Catalog, orders Store, meter metric.Meter) (*Service, error) {
	created, err := meter.Int64Counter("orders.created",
		metric.WithDescription("Number of orders placed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders counter")
	}

	return &Service{
		catalog: catalog,
		orders:  orders,
		created: created,
	}, nil
}

// Build validates items against the catalog, prices them and stores the
// resulting order for owner. Validation completes before anything is
// written, so a failed call leaves the store untouched.
func (s *Service) Build(ctx context.Context, owner auth.Identity, items []Item) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	if owner.IsZero() {
		return nil, ErrAnonymousOwner
	}

	lines := make([]Line, 0, len(items))
	total := decimal.Zero
	for i, item := range items {
		p, ok := s.catalog.Get(item.ProductID)
		if !ok || item.Qty <= 0 {
			return nil, &InvalidItemError{Index: i, Item: item}
		}

		lineTotal := money.Round2(p.Price.Mul(decimal.NewFromInt(int64(item.Qty))))
		// Rounded after every addition, not once at the end.
		total = money.Round2(total.Add(lineTotal))

		lines = append(lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: money.Round2(p.Price),
			Qty:       item.Qty,
			LineTotal: lineTotal,
		})
	}

	o := &Order{
		Owner: owner,
		Lines: lines,
		Total: total,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	s.created.Add(ctx, 1, metric.WithAttributes(attribute.Int("lines", len(lines))))

	return o, nil
}

// Get returns the order with the given id if it belongs to owner.
func (s *Service) Get(ctx context.Context, owner auth.Identity, id string) (*Order, error) {
	if owner.IsZero() {
		return nil, ErrNotFound
	}
	o, err := s.orders.Get(ctx, id, owner)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %s", id)
	}
	return o, nil
}

// List returns the orders of owner in creation order.
func (s *Service) List(ctx context.Context, owner auth.Identity) ([]Order, error) {
	if owner.IsZero() {
		return nil, nil
	}
	orders, err := s.orders.ListByOwner(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}
