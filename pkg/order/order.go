package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cartflow/pkg/catalog"
)

// Status is the lifecycle state of an order line.
type Status string

// StatusPending is the state of a freshly placed order.
const StatusPending Status = "pending"

// Order is one placed line: a quantity of a single menu item for a customer.
type Order struct {
	ID               string          `json:"id"`
	CustomerID       int64           `json:"customer_id"`
	MenuOutletItemID int64           `json:"menu_outlet_item_id"`
	Item             string          `json:"item"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	TableNumber      *int            `json:"table_number,omitempty"`
	Status           Status          `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Repository defines behavior for persisting orders.
type Repository interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	List(ctx context.Context) ([]Order, error)
}

// ErrNotFound indicates the requested order does not exist.
var ErrNotFound = errors.New("order not found")

// FromLines builds one pending order per line that references a catalog
// record. Add-ons and unresolved lines are skipped.
func FromLines(lines []catalog.Line, customerID int64, table *int, now time.Time) []Order {
	var out []Order
	for _, l := range lines {
		if !l.Resolved || l.IsAddon() || l.MenuItemID == 0 || l.Quantity <= 0 {
			continue
		}
		out = append(out, Order{
			ID:               uuid.NewString(),
			CustomerID:       customerID,
			MenuOutletItemID: l.MenuItemID,
			Item:             l.Name,
			Quantity:         l.Quantity,
			UnitPrice:        l.Price,
			TableNumber:      table,
			Status:           StatusPending,
			CreatedAt:        now,
		})
	}
	return out
}
