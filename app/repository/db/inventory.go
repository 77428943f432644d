package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"restock-service/app/domain"
)

type inventoryRepository struct {
	conn *sql.DB
}

func NewInventoryRepository(db *sql.DB) domain.InventoryRepository {
	return &inventoryRepository{db}
}

func (r *inventoryRepository) q(tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.conn
}

func (r *inventoryRepository) GetAvailability(ctx context.Context, productID int64, shopID *int64, tx *sql.Tx) (domain.Availability, error) {
	// Reservations are summed per stock row first so multiple reservations
	// on one row do not multiply its quantity.
	query := `SELECT COUNT(s.id),
		COALESCE(SUM(CASE WHEN w.active THEN s.quantity - COALESCE(r.reserved, 0) ELSE 0 END), 0)
	FROM stocks s
	JOIN warehouses w ON s.warehouse_id = w.id
	LEFT JOIN (
		SELECT stock_id, SUM(quantity) AS reserved
		FROM reserved_stocks
		WHERE status = 'active'
		GROUP BY stock_id
	) r ON r.stock_id = s.id
	WHERE s.product_id = $1`

	args := []any{productID}
	if shopID != nil {
		query += ` AND w.shop_id = $2`
		args = append(args, *shopID)
	}

	availability := domain.Availability{ProductID: productID}
	err := r.q(tx).QueryRowContext(ctx, query, args...).Scan(&availability.Stocks, &availability.Available)
	if err != nil {
		slog.ErrorContext(ctx, "[inventoryRepository] GetAvailability", "queryRowContext", err)
		return availability, err
	}

	if availability.Available < 0 {
		availability.Available = 0
	}

	return availability, nil
}

func (r *inventoryRepository) GetProductIDByStockID(ctx context.Context, stockID int64) (int64, error) {
	query := `SELECT product_id FROM stocks WHERE id = $1`

	var productID int64
	err := r.conn.QueryRowContext(ctx, query, stockID).Scan(&productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		slog.ErrorContext(ctx, "[inventoryRepository] GetProductIDByStockID", "queryRowContext", err)
		return 0, err
	}

	return productID, nil
}
