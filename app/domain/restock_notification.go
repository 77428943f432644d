package domain

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofrs/uuid/v5"
)

type RestockNotification struct {
	ID          uuid.UUID `json:"id"`
	ProductID   int64     `json:"product_id"`
	CustomerID  int64     `json:"customer_id"`
	CountryCode *string   `json:"country_code"`
	Language    *string   `json:"language"`
	Customer    *Customer `json:"customer,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RestockNotificationCreateRequest struct {
	ProductID      int64   `json:"-" validate:"required,gt=0"`
	CountryCode    *string `json:"country_code" validate:"omitempty,len=2,alpha"`
	Language       *string `json:"language" validate:"omitempty,max=8"`
	SalesChannelID *int64  `json:"sales_channel_id" validate:"omitempty,gt=0"`
}

type GetListRestockNotificationRequest struct {
	Page      int64  `query:"page"`
	Limit     int64  `query:"limit"`
	SortBy    string `query:"sort_by"`
	SortOrder string `query:"sort_order"`
}

type Metadata struct {
	TotalData int64  `json:"total_data"`
	TotalPage int64  `json:"total_page"`
	Page      int64  `json:"page"`
	Limit     int64  `json:"limit"`
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
}

// RestockNotificationRepository persists restock subscriptions. Methods taking a
// *sql.Tx join the caller's transaction when tx is non-nil.
type RestockNotificationRepository interface {
	Create(ctx context.Context, rn *RestockNotification, tx *sql.Tx) error
	Touch(ctx context.Context, productID, customerID int64, tx *sql.Tx) (RestockNotification, error)
	GetByProductIDAndCustomerID(ctx context.Context, productID, customerID int64) (RestockNotification, error)
	GetByProductID(ctx context.Context, productID int64, tx *sql.Tx) ([]RestockNotification, error)
	LockByProductID(ctx context.Context, productID int64, tx *sql.Tx) ([]RestockNotification, error)
	GetListByCustomerID(ctx context.Context, customerID int64, param GetListRestockNotificationRequest) ([]RestockNotification, error)
	GetListByCustomerIDCount(ctx context.Context, customerID int64) (int64, error)
	GetList(ctx context.Context, param GetListRestockNotificationRequest) ([]RestockNotification, error)
	GetListCount(ctx context.Context) (int64, error)
	DeleteByProductID(ctx context.Context, productID int64, ids []uuid.UUID, tx *sql.Tx) (int64, error)

	WithTransaction(ctx context.Context, fn func(context.Context, *sql.Tx) error) error
}

type RestockNotificationService interface {
	Create(ctx context.Context, customerID int64, req RestockNotificationCreateRequest) (RestockNotification, error)
	GetByProductID(ctx context.Context, customerID, productID int64) (RestockNotification, error)
	ListForCustomer(ctx context.Context, customerID int64, param GetListRestockNotificationRequest) ([]RestockNotification, Metadata, error)
	ListAll(ctx context.Context, param GetListRestockNotificationRequest) ([]RestockNotification, Metadata, error)
}
