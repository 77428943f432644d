package handler

import (
	"log/slog"
	"restock-service/app/domain"
	"restock-service/app/handler/api/response"

	"github.com/gofiber/fiber/v2"
)

type RestockHandler struct {
	restockUsecase domain.RestockTriggerService
}

func NewRestockHandler(restockUsecase domain.RestockTriggerService) *RestockHandler {
	return &RestockHandler{restockUsecase: restockUsecase}
}

// Trigger runs a restock check for one product on behalf of internal callers.
func (h *RestockHandler) Trigger(c *fiber.Ctx) error {
	ctx := c.UserContext()

	productID, err := productIDParam(c)
	if err != nil {
		slog.WarnContext(ctx, "[restockHandler] Trigger", "productID", c.Params("product_id"))
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	result, err := h.restockUsecase.TriggerRestock(ctx, productID)
	if err != nil {
		slog.ErrorContext(ctx, "[restockHandler] Trigger", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	status := fiber.StatusOK
	if result.Outcome == domain.RestockOutcomeScheduled {
		status = fiber.StatusAccepted
	}
	return c.Status(status).JSON(response.Success(result))
}
