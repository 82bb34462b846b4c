package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/shop-agent/backend/internal/adapters"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id       TEXT PRIMARY KEY,
	sku      TEXT NOT NULL UNIQUE,
	name     TEXT NOT NULL,
	price    REAL NOT NULL DEFAULT 0,
	quantity INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS orders (
	id     TEXT PRIMARY KEY,
	status TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);
`

// Adapter implements adapters.DatabaseAdapter on an embedded SQLite file.
// The default for local development and tests.
type Adapter struct {
	db *sql.DB
}

func New(dsn string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Adapter{db: db}, nil
}

func (a *Adapter) CheckInventory(ctx context.Context, sku string) (adapters.InventoryStatus, error) {
	var quantity int
	err := a.db.QueryRowContext(ctx,
		"SELECT quantity FROM products WHERE sku = ?", sku).Scan(&quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return adapters.InventoryStatus{SKU: sku}, nil
	}
	if err != nil {
		return adapters.InventoryStatus{}, fmt.Errorf("check inventory: %w", err)
	}

	return adapters.InventoryStatus{
		SKU:       sku,
		Available: quantity > 0,
		Quantity:  quantity,
	}, nil
}

func (a *Adapter) GetOrderStatus(ctx context.Context, orderID string) (adapters.Order, error) {
	var order adapters.Order
	err := a.db.QueryRowContext(ctx,
		"SELECT id, status FROM orders WHERE id = ?", orderID).Scan(&order.ID, &order.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return adapters.Order{}, adapters.ErrOrderNotFound
	}
	if err != nil {
		return adapters.Order{}, fmt.Errorf("get order status: %w", err)
	}
	return order, nil
}

func (a *Adapter) GetProducts(ctx context.Context, filter adapters.ProductFilter) ([]adapters.Product, error) {
	query := "SELECT id, sku, name, price FROM products WHERE 1=1"
	args := []interface{}{}
	if filter.SKU != "" {
		query += " AND sku = ?"
		args = append(args, filter.SKU)
	}
	if filter.Name != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+filter.Name+"%")
	}
	query += " ORDER BY name LIMIT 25"

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()

	var products []adapters.Product
	for rows.Next() {
		var p adapters.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Price); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (a *Adapter) Close() error {
	return a.db.Close()
}
