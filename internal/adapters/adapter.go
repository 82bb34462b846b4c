package adapters

import (
	"context"
	"errors"
)

// ErrOrderNotFound is returned by GetOrderStatus when the order ID does not
// exist. Callers turn it into a user-facing message instead of a 500.
var ErrOrderNotFound = errors.New("order not found")

type InventoryStatus struct {
	SKU       string `json:"sku"`
	Available bool   `json:"available"`
	Quantity  int    `json:"quantity"`
}

type Order struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type Product struct {
	ID    string  `json:"id"`
	SKU   string  `json:"sku"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ProductFilter narrows GetProducts. Empty fields match everything; Name is
// a substring match, SKU is exact.
type ProductFilter struct {
	Name string
	SKU  string
}

// DatabaseAdapter is the commerce-data lookup surface the chat tools call
// into. Implementations exist for SQLite and Postgres; tests use fakes.
type DatabaseAdapter interface {
	CheckInventory(ctx context.Context, sku string) (InventoryStatus, error)
	GetOrderStatus(ctx context.Context, orderID string) (Order, error)
	GetProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	Close() error
}
