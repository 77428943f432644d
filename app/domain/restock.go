package domain

import (
	"context"
	"time"
)

type RestockOutcome string

const (
	RestockOutcomeScheduled         RestockOutcome = "scheduled"
	RestockOutcomeNoSubscriptions   RestockOutcome = "no_subscriptions"
	RestockOutcomeInsufficientStock RestockOutcome = "insufficient_stock"
	RestockOutcomeSuperseded        RestockOutcome = "superseded"
	RestockOutcomeNotified          RestockOutcome = "notified"
)

type RestockResult struct {
	ProductID int64          `json:"product_id"`
	Outcome   RestockOutcome `json:"outcome"`
	Notified  int            `json:"notified"`
}

type RestockExecuteMessage struct {
	ProductID int64 `json:"product_id"`
}

type RestockedProduct struct {
	ProductID int64 `json:"product_id"`
	// Stocks is the number of warehouse stock rows the availability was summed over.
	Stocks    int64 `json:"stocks"`
	Available int64 `json:"available"`
}

// RestockedEvent is published once per restock cycle of a product and carries every
// subscription that was cleared by it.
type RestockedEvent struct {
	ID            string                `json:"id"`
	Product       RestockedProduct      `json:"product"`
	Subscriptions []RestockNotification `json:"restock_notifications"`
	OccurredAt    time.Time             `json:"occurred_at"`
}

type RestockTriggerService interface {
	TriggerRestock(ctx context.Context, productID int64) (RestockResult, error)
	RestockExecute(ctx context.Context, productID int64) (RestockResult, error)
}
