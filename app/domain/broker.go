package domain

import (
	"context"
	"time"
)

const (
	EventRestockExecute   = "restock.execute"
	EventRestockRestocked = "restock.restocked"

	SubjectStockAvailable = "stock.available"
	SubjectStockLevel     = "stock.level"

	// HeaderNotBefore holds the RFC3339Nano instant before which a delayed
	// message must not be processed.
	HeaderNotBefore = "Restock-Not-Before"
)

// StockMessage is the warehouse service's stock availability event.
type StockMessage struct {
	ProductID int64 `json:"product_id"`
	Available int64 `json:"available"`
}

// StockLevelMessage reports a change on a single warehouse stock row.
type StockLevelMessage struct {
	StockID int64 `json:"stock_id"`
}

type Event struct {
	Name    string
	ID      string
	Payload any
}

type NotificationPublisher interface {
	Publish(ctx context.Context, event Event) error
	PublishDelayed(ctx context.Context, event Event, delay time.Duration) error
}
