package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"restock-service/app/domain"

	"github.com/nats-io/nats.go/jetstream"
)

// StockHandler turns warehouse stock signals into restock triggers.
type StockHandler struct {
	restockUsecase domain.RestockTriggerService
	inventoryRepo  domain.InventoryRepository
}

func NewStockHandler(restockUsecase domain.RestockTriggerService, inventoryRepo domain.InventoryRepository) *StockHandler {
	return &StockHandler{restockUsecase, inventoryRepo}
}

func (h *StockHandler) Handle(ctx context.Context, msg jetstream.Msg) {
	err := h.handle(ctx, msg.Subject(), msg.Data())
	settle(ctx, msg, 0, err)
}

func (h *StockHandler) handle(ctx context.Context, subject string, data []byte) error {
	productID, err := h.productID(ctx, subject, data)
	if err != nil {
		return err
	}

	result, err := h.restockUsecase.TriggerRestock(ctx, productID)
	if err != nil {
		slog.ErrorContext(ctx, "[StockHandler] handle", "triggerRestock", err)
		return err
	}

	slog.InfoContext(ctx, "[StockHandler] handle", "subject", subject, "productID", productID, "outcome", result.Outcome)
	return nil
}

func (h *StockHandler) productID(ctx context.Context, subject string, data []byte) (int64, error) {
	switch subject {
	case domain.SubjectStockAvailable:
		var msg domain.StockMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.ProductID <= 0 {
			return 0, fmt.Errorf("%w: invalid %s payload", domain.ErrBadRequest, subject)
		}
		return msg.ProductID, nil

	case domain.SubjectStockLevel:
		var msg domain.StockLevelMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.StockID <= 0 {
			return 0, fmt.Errorf("%w: invalid %s payload", domain.ErrBadRequest, subject)
		}
		productID, err := h.inventoryRepo.GetProductIDByStockID(ctx, msg.StockID)
		if err != nil {
			slog.ErrorContext(ctx, "[StockHandler] productID", "getProductIDByStockID", err)
			return 0, err
		}
		return productID, nil
	}

	return 0, fmt.Errorf("%w: unexpected subject %s", domain.ErrBadRequest, subject)
}
