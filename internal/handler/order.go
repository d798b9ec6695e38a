package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-orders/internal/domain/auth"
	"github.com/xenking/kart-orders/internal/domain/money"
	"github.com/xenking/kart-orders/internal/domain/order"
	"github.com/xenking/kart-orders/internal/domain/product"
)

// OrderServiceName is reported by the order service health endpoint.
const OrderServiceName = "order-service"

// maxBodyBytes caps request bodies read by the adapters.
const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid request body")

// OrderHandler serves the catalog and the caller's orders.
type OrderHandler struct {
	gate    *auth.Gate
	orders  *order.Service
	catalog *product.Catalog
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(gate *auth.Gate, orders *order.Service, catalog *product.Catalog) *OrderHandler {
	return &OrderHandler{
		gate:    gate,
		orders:  orders,
		catalog: catalog,
	}
}

// Products lists the catalog with prices rounded to two places.
func (h *OrderHandler) Products() Response {
	products := h.catalog.List()
	return respond(StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, p := range products {
				encodeProduct(e, p)
			}
		})
	})
}

// PlaceOrder authenticates the caller and builds an order from a JSON body
// of the form {"items":[{"product_id":"p1","qty":2}]}. A missing qty
// counts as 1.
func (h *OrderHandler) PlaceOrder(ctx context.Context, authorization string, body []byte) Response {
	owner, deny := authenticate(h.gate, authorization)
	if deny != nil {
		return *deny
	}

	items, err := decodeOrderRequest(body)
	if err != nil {
		return errorResponse(StatusBadRequest, errInvalidBody.Error())
	}

	o, err := h.orders.Build(ctx, owner, items)
	if err != nil {
		return mapOrderError(ctx, err)
	}

	zctx.From(ctx).Info("Order placed",
		zap.String("order_id", o.ID),
		zap.Int("lines", len(o.Lines)),
		zap.String("total", money.Format(o.Total)),
	)
	return respond(StatusCreated, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// ListOrders returns every order of the caller in creation order.
func (h *OrderHandler) ListOrders(ctx context.Context, authorization string) Response {
	owner, deny := authenticate(h.gate, authorization)
	if deny != nil {
		return *deny
	}

	orders, err := h.orders.List(ctx, owner)
	if err != nil {
		return mapOrderError(ctx, err)
	}
	return respond(StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range orders {
				encodeOrder(e, &orders[i])
			}
		})
	})
}

// GetOrder returns a single order of the caller. Orders of other users are
// reported as not found.
func (h *OrderHandler) GetOrder(ctx context.Context, authorization, id string) Response {
	owner, deny := authenticate(h.gate, authorization)
	if deny != nil {
		return *deny
	}

	o, err := h.orders.Get(ctx, owner, id)
	if err != nil {
		return mapOrderError(ctx, err)
	}
	return respond(StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// Health reports the service name.
func (h *OrderHandler) Health() Response {
	return healthResponse(OrderServiceName, "")
}

// Routes mounts the order service routes on mux.
func (h *OrderHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /products", func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, r, h.Products())
	})
	mux.HandleFunc("POST /orders", func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(w, r)
		if err != nil {
			writeResponse(w, r, errorResponse(StatusBadRequest, errInvalidBody.Error()))
			return
		}
		writeResponse(w, r, h.PlaceOrder(r.Context(), r.Header.Get("Authorization"), body))
	})
	mux.HandleFunc("GET /orders", func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, r, h.ListOrders(r.Context(), r.Header.Get("Authorization")))
	})
	mux.HandleFunc("GET /orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, r, h.GetOrder(r.Context(), r.Header.Get("Authorization"), r.PathValue("id")))
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, r, h.Health())
	})
}

// mapOrderError converts domain errors to responses.
func mapOrderError(ctx context.Context, err error) Response {
	if errors.Is(err, order.ErrEmptyCart) {
		return errorResponse(StatusBadRequest, err.Error())
	}

	var itemErr *order.InvalidItemError
	if errors.As(err, &itemErr) {
		return errorResponse(StatusBadRequest, itemErr.Error())
	}

	if errors.Is(err, order.ErrNotFound) {
		return errorResponse(StatusNotFound, "not found")
	}

	if errors.Is(err, order.ErrAnonymousOwner) {
		return errorResponse(StatusUnauthorized, auth.ErrInvalidToken.Error())
	}

	zctx.From(ctx).Error("Order request failed", zap.Error(err))
	return internalError()
}

// decodeOrderRequest parses the order body. An empty or null body yields no
// items, which the service rejects as an empty cart.
func decodeOrderRequest(body []byte) ([]order.Item, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	d := jx.DecodeBytes(body)
	if d.Next() == jx.Null {
		return nil, d.Null()
	}

	var items []order.Item
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "items" {
			return d.Skip()
		}
		if d.Next() == jx.Null {
			return d.Null()
		}
		return d.Arr(func(d *jx.Decoder) error {
			item, err := decodeItem(d)
			if err != nil {
				return err
			}
			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode order request")
	}
	return items, nil
}

// decodeItem reads one order line. A null product_id is left empty and a
// null qty keeps the default of 1, so the service reports the line as an
// invalid item.
func decodeItem(d *jx.Decoder) (order.Item, error) {
	item := order.Item{Qty: 1}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "product_id" && key != "qty" {
			return d.Skip()
		}
		if d.Next() == jx.Null {
			return d.Null()
		}
		switch key {
		case "product_id":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "product_id")
			}
			item.ProductID = v
		case "qty":
			v, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "qty")
			}
			item.Qty = v
		}
		return nil
	})
	return item, err
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("price", func(e *jx.Encoder) { e.Raw([]byte(money.Format(money.Round2(p.Price)))) })
	})
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("order_id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("user", func(e *jx.Encoder) { e.Str(o.Owner.String()) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range o.Lines {
					encodeLine(e, l)
				}
			})
		})
		e.Field("total", func(e *jx.Encoder) { e.Raw([]byte(money.Format(o.Total))) })
	})
}

func encodeLine(e *jx.Encoder, l order.Line) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("product_id", func(e *jx.Encoder) { e.Str(l.ProductID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(l.Name) })
		e.Field("unit_price", func(e *jx.Encoder) { e.Raw([]byte(money.Format(l.UnitPrice))) })
		e.Field("qty", func(e *jx.Encoder) { e.Int(l.Qty) })
		e.Field("line_total", func(e *jx.Encoder) { e.Raw([]byte(money.Format(l.LineTotal))) })
	})
}

func healthResponse(service, env string) Response {
	return respond(StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", func(e *jx.Encoder) { e.Str("ok") })
			e.Field("service", func(e *jx.Encoder) { e.Str(service) })
			if env != "" {
				e.Field("env", func(e *jx.Encoder) { e.Str(env) })
			}
		})
	})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return body, nil
}
