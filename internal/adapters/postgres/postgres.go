package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shop-agent/backend/internal/adapters"
)

// Adapter implements adapters.DatabaseAdapter on a Postgres pool, for
// deployments where the commerce data lives in a shared database.
type Adapter struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*Adapter, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Adapter{pool: pool}, nil
}

func (a *Adapter) CheckInventory(ctx context.Context, sku string) (adapters.InventoryStatus, error) {
	var quantity int
	err := a.pool.QueryRow(ctx,
		"SELECT quantity FROM products WHERE sku = $1", sku).Scan(&quantity)
	if errors.Is(err, pgx.ErrNoRows) {
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
	err := a.pool.QueryRow(ctx,
		"SELECT id, status FROM orders WHERE id = $1", orderID).Scan(&order.ID, &order.Status)
	if errors.Is(err, pgx.ErrNoRows) {
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
		args = append(args, filter.SKU)
		query += fmt.Sprintf(" AND sku = $%d", len(args))
	}
	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	query += " ORDER BY name LIMIT 25"

	rows, err := a.pool.Query(ctx, query, args...)
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
	a.pool.Close()
	return nil
}
