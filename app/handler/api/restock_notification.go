package handler

import (
	"log/slog"
	"restock-service/app/domain"
	"restock-service/app/handler/api/response"
	"restock-service/pkg/ctxutil"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type RestockNotificationHandler struct {
	restockNotificationUsecase domain.RestockNotificationService
	validator                  *validator.Validate
}

func NewRestockNotificationHandler(restockNotificationUsecase domain.RestockNotificationService, validator *validator.Validate) *RestockNotificationHandler {
	return &RestockNotificationHandler{
		restockNotificationUsecase: restockNotificationUsecase,
		validator:                  validator,
	}
}

func (h *RestockNotificationHandler) Create(c *fiber.Ctx) error {
	ctx := c.UserContext()

	productID, err := productIDParam(c)
	if err != nil {
		slog.WarnContext(ctx, "[restockNotificationHandler] Create", "productID", c.Params("product_id"))
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	var req domain.RestockNotificationCreateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			slog.WarnContext(ctx, "[restockNotificationHandler] Create", "bodyParser", err)
			return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
		}
	}
	req.ProductID = productID

	if err := h.validator.Struct(req); err != nil {
		slog.WarnContext(ctx, "[restockNotificationHandler] Create", "validation", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrValidation))
	}

	customerID, err := ctxutil.GetCustomerIDCtx(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "[restockNotificationHandler] Create", "getCustomerIDCtx", err)
		return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
	}

	rn, err := h.restockNotificationUsecase.Create(ctx, customerID, req)
	if err != nil {
		slog.WarnContext(ctx, "[restockNotificationHandler] Create", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(rn))
}

func (h *RestockNotificationHandler) GetByProductID(c *fiber.Ctx) error {
	ctx := c.UserContext()

	productID, err := productIDParam(c)
	if err != nil {
		slog.WarnContext(ctx, "[restockNotificationHandler] GetByProductID", "productID", c.Params("product_id"))
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	customerID, err := ctxutil.GetCustomerIDCtx(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "[restockNotificationHandler] GetByProductID", "getCustomerIDCtx", err)
		return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
	}

	rn, err := h.restockNotificationUsecase.GetByProductID(ctx, customerID, productID)
	if err != nil {
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(rn))
}

func (h *RestockNotificationHandler) GetList(c *fiber.Ctx) error {
	ctx := c.UserContext()

	customerID, err := ctxutil.GetCustomerIDCtx(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "[restockNotificationHandler] GetList", "getCustomerIDCtx", err)
		return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
	}

	notifications, metadata, err := h.restockNotificationUsecase.ListForCustomer(ctx, customerID, listParam(c))
	if err != nil {
		slog.ErrorContext(ctx, "[restockNotificationHandler] GetList", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.SuccessWithMetadata(notifications, metadata))
}

func (h *RestockNotificationHandler) GetListInternal(c *fiber.Ctx) error {
	ctx := c.UserContext()

	notifications, metadata, err := h.restockNotificationUsecase.ListAll(ctx, listParam(c))
	if err != nil {
		slog.ErrorContext(ctx, "[restockNotificationHandler] GetListInternal", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.SuccessWithMetadata(notifications, metadata))
}

func productIDParam(c *fiber.Ctx) (int64, error) {
	productID, err := strconv.ParseInt(c.Params("product_id"), 10, 64)
	if err != nil {
		return 0, err
	}
	if productID <= 0 {
		return 0, domain.ErrBadRequest
	}
	return productID, nil
}

// listParam clamps paging and whitelists the sort column, which is
// interpolated into the query.
func listParam(c *fiber.Ctx) domain.GetListRestockNotificationRequest {
	param := domain.GetListRestockNotificationRequest{}
	if err := c.QueryParser(&param); err != nil {
		slog.WarnContext(c.UserContext(), "[restockNotificationHandler] listParam", "queryParser", err)
	}

	if param.Page <= 0 {
		param.Page = 1
	}
	if param.Limit <= 0 {
		param.Limit = 10
	}
	if param.Limit > 50 {
		param.Limit = 50
	}
	if param.SortBy != "created_at" && param.SortBy != "updated_at" && param.SortBy != "product_id" {
		param.SortBy = "created_at"
	}
	if param.SortOrder != "asc" && param.SortOrder != "desc" {
		param.SortOrder = "desc"
	}
	return param
}
