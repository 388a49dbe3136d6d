// Package checkout turns a cart view into placed orders.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"cartflow/pkg/cart"
	"cartflow/pkg/cartview"
	"cartflow/pkg/catalog"
	"cartflow/pkg/logger"
	"cartflow/pkg/order"
	"cartflow/pkg/otel"
)

var (
	// ErrCatalogNotReady is returned while the catalog is loading or failed.
	ErrCatalogNotReady = errors.New("catalog not ready")
	// ErrNothingToOrder is returned when no line references a catalog record.
	ErrNothingToOrder = errors.New("no orderable items in cart")
	// ErrInvalidCustomer is returned for a missing customer id.
	ErrInvalidCustomer = errors.New("invalid customer")
)

// Request carries the checkout form.
type Request struct {
	CustomerID  int64 `json:"customer_id"`
	TableNumber *int  `json:"table_number,omitempty"`
}

// Receipt describes a placed checkout.
type Receipt struct {
	Orders []order.Order   `json:"orders"`
	Totals cartview.Totals `json:"totals"`
}

// Service places orders for a cart.
type Service struct {
	orders order.Repository
	log    *logger.Logger
	now    func() time.Time
}

// NewService creates a checkout service writing to orders.
func NewService(orders order.Repository, log *logger.Logger) *Service {
	return &Service{orders: orders, log: log, now: time.Now}
}

// Place creates one order per orderable line of view, concurrently. Once all
// of them were created it subtracts the entries view was built from, so
// items added to store meanwhile stay in the cart. On failure the cart is
// kept.
func (s *Service) Place(ctx context.Context, store *cart.Store, view cartview.View, req Request) (Receipt, error) {
	ctx, span := otel.AddSpan(ctx, "checkout.place", attribute.Int64("customer.id", req.CustomerID))
	defer span.End()

	if req.CustomerID <= 0 {
		return Receipt{}, ErrInvalidCustomer
	}
	if view.Status != catalog.StatusReady {
		return Receipt{}, fmt.Errorf("%w: %s", ErrCatalogNotReady, view.Status)
	}

	orders := order.FromLines(view.Orderable(), req.CustomerID, req.TableNumber, s.now())
	if len(orders) == 0 {
		return Receipt{}, ErrNothingToOrder
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, o := range orders {
		g.Go(func() error {
			if err := s.orders.Create(gctx, o); err != nil {
				return fmt.Errorf("create order for %q: %w", o.Item, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		s.log.Error(ctx, "place orders", "customer_id", req.CustomerID, "error", err)
		return Receipt{}, err
	}

	if err := store.Subtract(ctx, view.Entries); err != nil {
		s.log.Warn(ctx, "clear cart after checkout", "error", err)
	}
	s.log.Info(ctx, "orders placed", "customer_id", req.CustomerID, "orders", len(orders), "total", view.Totals.Total.StringFixed(2))

	return Receipt{Orders: orders, Totals: view.Totals}, nil
}
