package ctxutil

import (
	"context"
	"errors"
)

type ctxKey string

const (
	RequestIDKey  ctxKey = "request_id"
	CustomerIDKey ctxKey = "customer_id"
)

var ErrCustomerIDNotFound = errors.New("customer id not found in context")

func WithRequestID(ctx context.Context, reqID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, reqID)
}

func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(RequestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func WithCustomerID(ctx context.Context, customerID int64) context.Context {
	return context.WithValue(ctx, CustomerIDKey, customerID)
}

func GetCustomerIDCtx(ctx context.Context) (int64, error) {
	if v := ctx.Value(CustomerIDKey); v != nil {
		if id, ok := v.(int64); ok && id > 0 {
			return id, nil
		}
	}
	return 0, ErrCustomerIDNotFound
}
