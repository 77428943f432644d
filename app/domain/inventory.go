package domain

import (
	"context"
	"database/sql"
)

type Availability struct {
	ProductID int64 `json:"product_id"`
	// Stocks is the number of stock rows tracked for the product across warehouses.
	Stocks    int64 `json:"stocks"`
	Available int64 `json:"available"`
}

func (a Availability) Tracked() bool {
	return a.Stocks > 0
}

type InventoryRepository interface {
	// GetAvailability sums quantity minus active reservations over active warehouses.
	// A non-nil shopID restricts the sum to that shop's warehouses. A non-nil tx
	// runs the read on the caller's connection.
	GetAvailability(ctx context.Context, productID int64, shopID *int64, tx *sql.Tx) (Availability, error)
	GetProductIDByStockID(ctx context.Context, stockID int64) (int64, error)
}
