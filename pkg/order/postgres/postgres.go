package postgres

import (
	"context"
	"database/sql"

	"cartflow/pkg/order"
)

// Schema creates the orders table used by Repository.
const Schema = `CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	customer_id BIGINT NOT NULL,
	menu_outlet_item_id BIGINT NOT NULL,
	item TEXT NOT NULL,
	quantity INT NOT NULL,
	unit_price NUMERIC(12,2) NOT NULL,
	table_number INT,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

const columns = "id,customer_id,menu_outlet_item_id,item,quantity,unit_price,table_number,status,created_at"

// Repository persists orders in PostgreSQL.
type Repository struct {
	db *sql.DB
}

// New creates a PostgreSQL repository.
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new order.
func (r *Repository) Create(ctx context.Context, o order.Order) error {
	var table sql.NullInt64
	if o.TableNumber != nil {
		table = sql.NullInt64{Int64: int64(*o.TableNumber), Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO orders ("+columns+") VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)",
		o.ID, o.CustomerID, o.MenuOutletItemID, o.Item, o.Quantity, o.UnitPrice.StringFixed(2), table, string(o.Status), o.CreatedAt)
	return err
}

// Get retrieves an order by ID.
func (r *Repository) Get(ctx context.Context, id string) (order.Order, error) {
	o, err := scan(r.db.QueryRowContext(ctx, "SELECT "+columns+" FROM orders WHERE id=$1", id))
	if err == sql.ErrNoRows {
		return order.Order{}, order.ErrNotFound
	}
	return o, err
}

// List fetches all orders, oldest first.
func (r *Repository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+columns+" FROM orders ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []order.Order
	for rows.Next() {
		o, err := scan(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (order.Order, error) {
	var (
		o      order.Order
		table  sql.NullInt64
		status string
	)
	err := row.Scan(&o.ID, &o.CustomerID, &o.MenuOutletItemID, &o.Item, &o.Quantity, &o.UnitPrice, &table, &status, &o.CreatedAt)
	if err != nil {
		return order.Order{}, err
	}
	if table.Valid {
		n := int(table.Int64)
		o.TableNumber = &n
	}
	o.Status = order.Status(status)
	return o, nil
}
