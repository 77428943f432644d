package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"restock-service/app/domain"
	"restock-service/pkg/metrics"

	"github.com/gofrs/uuid/v5"
)

const (
	signupCreated      = "created"
	signupDuplicate    = "duplicate"
	signupInStock      = "in_stock"
	signupUnknown      = "unknown_product"
	signupUnauthorized = "unauthorized"
	signupError        = "error"
)

// createAttempts bounds the retry when a duplicate row is cleared by a restock
// between the conflicting insert and the touch.
const createAttempts = 2

type restockNotificationUsecase struct {
	restockNotificationRepo domain.RestockNotificationRepository
	inventoryRepo           domain.InventoryRepository
	customerRepo            domain.CustomerRepository
	metrics                 *metrics.RestockMetrics
}

func NewRestockNotificationUsecase(restockNotificationRepo domain.RestockNotificationRepository, inventoryRepo domain.InventoryRepository,
	customerRepo domain.CustomerRepository, m *metrics.RestockMetrics) domain.RestockNotificationService {
	return &restockNotificationUsecase{restockNotificationRepo, inventoryRepo, customerRepo, m}
}

func (u *restockNotificationUsecase) Create(ctx context.Context, customerID int64, req domain.RestockNotificationCreateRequest) (domain.RestockNotification, error) {
	if _, err := u.customerRepo.GetByID(ctx, customerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.WarnContext(ctx, "[restockNotificationUsecase] Create", "unknownCustomer", customerID)
			u.metrics.IncSignup(signupUnauthorized)
			return domain.RestockNotification{}, fmt.Errorf("%w: customer %d", domain.ErrUnauthorized, customerID)
		}
		slog.ErrorContext(ctx, "[restockNotificationUsecase] Create", "getCustomer", err)
		u.metrics.IncSignup(signupError)
		return domain.RestockNotification{}, err
	}

	availability, err := u.inventoryRepo.GetAvailability(ctx, req.ProductID, req.SalesChannelID, nil)
	if err != nil {
		slog.ErrorContext(ctx, "[restockNotificationUsecase] Create", "getAvailability", err)
		u.metrics.IncSignup(signupError)
		return domain.RestockNotification{}, err
	}

	if !availability.Tracked() {
		u.metrics.IncSignup(signupUnknown)
		return domain.RestockNotification{}, fmt.Errorf("%w: product %d", domain.ErrNotFound, req.ProductID)
	}

	if availability.Available > 0 {
		slog.InfoContext(ctx, "[restockNotificationUsecase] Create", "inStock", req.ProductID, "available", availability.Available)
		u.metrics.IncSignup(signupInStock)
		return domain.RestockNotification{}, fmt.Errorf("%w: product %d is in stock", domain.ErrNotAllowed, req.ProductID)
	}

	for attempt := 1; ; attempt++ {
		rn, result, err := u.createOrTouch(ctx, customerID, req)
		if errors.Is(err, domain.ErrNotFound) && attempt < createAttempts {
			continue
		}
		if err != nil {
			u.metrics.IncSignup(signupError)
			return domain.RestockNotification{}, err
		}

		u.metrics.IncSignup(result)
		slog.InfoContext(ctx, "[restockNotificationUsecase] Create", "productID", rn.ProductID, "customerID", customerID, "result", result)
		return rn, nil
	}
}

// createOrTouch inserts a subscription, or refreshes the existing one for the same
// product and customer. The insert runs outside a transaction because a unique
// violation aborts the surrounding Postgres transaction.
func (u *restockNotificationUsecase) createOrTouch(ctx context.Context, customerID int64, req domain.RestockNotificationCreateRequest) (domain.RestockNotification, string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		slog.ErrorContext(ctx, "[restockNotificationUsecase] Create", "uuid", err)
		return domain.RestockNotification{}, "", err
	}

	rn := domain.RestockNotification{
		ID:          id,
		ProductID:   req.ProductID,
		CustomerID:  customerID,
		CountryCode: req.CountryCode,
		Language:    req.Language,
	}

	err = u.restockNotificationRepo.Create(ctx, &rn, nil)
	if err == nil {
		return rn, signupCreated, nil
	}
	if !errors.Is(err, domain.ErrAlreadyExists) {
		slog.ErrorContext(ctx, "[restockNotificationUsecase] Create", "createRestockNotification", err)
		return domain.RestockNotification{}, "", err
	}

	existing, err := u.restockNotificationRepo.Touch(ctx, req.ProductID, customerID, nil)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.InfoContext(ctx, "[restockNotificationUsecase] Create", "clearedBeforeTouch", req.ProductID)
		} else {
			slog.ErrorContext(ctx, "[restockNotificationUsecase] Create", "touchRestockNotification", err)
		}
		return domain.RestockNotification{}, "", err
	}
	return existing, signupDuplicate, nil
}

func (u *restockNotificationUsecase) GetByProductID(ctx context.Context, customerID, productID int64) (domain.RestockNotification, error) {
	rn, err := u.restockNotificationRepo.GetByProductIDAndCustomerID(ctx, productID, customerID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.ErrorContext(ctx, "[restockNotificationUsecase] GetByProductID", "getRestockNotification", err)
		}
		return domain.RestockNotification{}, err
	}
	return rn, nil
}

func (u *restockNotificationUsecase) ListForCustomer(ctx context.Context, customerID int64, param domain.GetListRestockNotificationRequest) ([]domain.RestockNotification, domain.Metadata, error) {
	notifications, err := u.restockNotificationRepo.GetListByCustomerID(ctx, customerID, param)
	if err != nil {
		slog.ErrorContext(ctx, "[restockNotificationUsecase] ListForCustomer", "getList", err)
		return nil, domain.Metadata{}, err
	}

	count, err := u.restockNotificationRepo.GetListByCustomerIDCount(ctx, customerID)
	if err != nil {
		slog.ErrorContext(ctx, "[restockNotificationUsecase] ListForCustomer", "getListCount", err)
		return nil, domain.Metadata{}, err
	}

	return notifications, buildMetadata(count, param), nil
}

func (u *restockNotificationUsecase) ListAll(ctx context.Context, param domain.GetListRestockNotificationRequest) ([]domain.RestockNotification, domain.Metadata, error) {
	notifications, err := u.restockNotificationRepo.GetList(ctx, param)
	if err != nil {
		slog.ErrorContext(ctx, "[restockNotificationUsecase] ListAll", "getList", err)
		return nil, domain.Metadata{}, err
	}

	count, err := u.restockNotificationRepo.GetListCount(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "[restockNotificationUsecase] ListAll", "getListCount", err)
		return nil, domain.Metadata{}, err
	}

	return notifications, buildMetadata(count, param), nil
}

func buildMetadata(count int64, param domain.GetListRestockNotificationRequest) domain.Metadata {
	var totalPage int64 = 1
	if param.Limit > 0 {
		totalPage = int64(math.Ceil(float64(count) / float64(param.Limit)))
	}
	return domain.Metadata{
		TotalData: count,
		TotalPage: totalPage,
		Page:      param.Page,
		Limit:     param.Limit,
		SortBy:    param.SortBy,
		SortOrder: param.SortOrder,
	}
}
