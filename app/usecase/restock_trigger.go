package usecase

import (
	"context"
	"database/sql"
	"log/slog"
	"restock-service/app/domain"
	"restock-service/config"
	"restock-service/pkg/metrics"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
)

// restockEventNamespace scopes the name-based event ids of restocked events.
var restockEventNamespace = uuid.Must(uuid.FromString("5d0b8c1e-3f5a-4e8e-9c55-1d8f2f6b7a41"))

type restockTriggerUsecase struct {
	restockNotificationRepo domain.RestockNotificationRepository
	inventoryRepo           domain.InventoryRepository
	publisher               domain.NotificationPublisher
	metrics                 *metrics.RestockMetrics
	triggerDelay            time.Duration
	inventoryRequired       int64
	now                     func() time.Time
}

func NewRestockTriggerUsecase(restockNotificationRepo domain.RestockNotificationRepository, inventoryRepo domain.InventoryRepository,
	publisher domain.NotificationPublisher, m *metrics.RestockMetrics, cfg *config.Config) domain.RestockTriggerService {
	inventoryRequired := cfg.Restock.InventoryRequired
	if inventoryRequired < 1 {
		inventoryRequired = 1
	}

	return &restockTriggerUsecase{
		restockNotificationRepo: restockNotificationRepo,
		inventoryRepo:           inventoryRepo,
		publisher:               publisher,
		metrics:                 m,
		triggerDelay:            cfg.Restock.TriggerDelay,
		inventoryRequired:       inventoryRequired,
		now:                     time.Now,
	}
}

func (u *restockTriggerUsecase) TriggerRestock(ctx context.Context, productID int64) (domain.RestockResult, error) {
	if u.triggerDelay <= 0 {
		return u.RestockExecute(ctx, productID)
	}

	err := u.publisher.PublishDelayed(ctx, domain.Event{
		Name:    domain.EventRestockExecute,
		Payload: domain.RestockExecuteMessage{ProductID: productID},
	}, u.triggerDelay)
	if err != nil {
		slog.ErrorContext(ctx, "[restockTriggerUsecase] TriggerRestock", "publishDelayed", err)
		return domain.RestockResult{}, err
	}

	slog.InfoContext(ctx, "[restockTriggerUsecase] TriggerRestock", "productID", productID, "delay", u.triggerDelay)
	return u.record(domain.RestockResult{ProductID: productID, Outcome: domain.RestockOutcomeScheduled}), nil
}

// RestockExecute notifies and clears every subscription of the product once stock
// meets the configured threshold. Subscriptions are locked for the length of the
// transaction, and the delete removes only the locked snapshot, so a signup that
// lands meanwhile waits for the next restock instead of being dropped unnotified.
func (u *restockTriggerUsecase) RestockExecute(ctx context.Context, productID int64) (domain.RestockResult, error) {
	result := domain.RestockResult{ProductID: productID}

	err := u.restockNotificationRepo.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		subscriptions, err := u.restockNotificationRepo.LockByProductID(ctx, productID, tx)
		if err != nil {
			slog.ErrorContext(ctx, "[restockTriggerUsecase] RestockExecute", "lockByProductID", err)
			return err
		}
		if len(subscriptions) == 0 {
			result.Outcome = domain.RestockOutcomeNoSubscriptions
			return nil
		}

		// Read on the locking tx: a second pooled connection could wait behind
		// executions blocked on these same row locks.
		availability, err := u.inventoryRepo.GetAvailability(ctx, productID, nil, tx)
		if err != nil {
			slog.ErrorContext(ctx, "[restockTriggerUsecase] RestockExecute", "getAvailability", err)
			return err
		}
		if availability.Available < u.inventoryRequired {
			slog.InfoContext(ctx, "[restockTriggerUsecase] RestockExecute", "insufficientStock", productID,
				"available", availability.Available, "required", u.inventoryRequired)
			result.Outcome = domain.RestockOutcomeInsufficientStock
			return nil
		}

		ids := make([]uuid.UUID, 0, len(subscriptions))
		for _, s := range subscriptions {
			ids = append(ids, s.ID)
		}

		removed, err := u.restockNotificationRepo.DeleteByProductID(ctx, productID, ids, tx)
		if err != nil {
			slog.ErrorContext(ctx, "[restockTriggerUsecase] RestockExecute", "deleteByProductID", err)
			return err
		}
		if removed == 0 {
			result.Outcome = domain.RestockOutcomeSuperseded
			return nil
		}

		event := domain.RestockedEvent{
			ID: restockEventID(productID, ids),
			Product: domain.RestockedProduct{
				ProductID: productID,
				Stocks:    availability.Stocks,
				Available: availability.Available,
			},
			Subscriptions: subscriptions,
			OccurredAt:    u.now().UTC(),
		}

		// A failed publish rolls the delete back so a redelivered signal retries.
		if err := u.publisher.Publish(ctx, domain.Event{
			Name:    domain.EventRestockRestocked,
			ID:      event.ID,
			Payload: event,
		}); err != nil {
			slog.ErrorContext(ctx, "[restockTriggerUsecase] RestockExecute", "publishRestocked", err)
			return err
		}

		result.Outcome = domain.RestockOutcomeNotified
		result.Notified = len(subscriptions)
		return nil
	})
	if err != nil {
		u.metrics.IncExecution("error")
		return domain.RestockResult{}, err
	}

	if result.Outcome == domain.RestockOutcomeNotified {
		u.metrics.AddNotified(result.Notified)
	}

	slog.InfoContext(ctx, "[restockTriggerUsecase] RestockExecute", "productID", productID,
		"outcome", result.Outcome, "notified", result.Notified)
	return u.record(result), nil
}

func (u *restockTriggerUsecase) record(result domain.RestockResult) domain.RestockResult {
	u.metrics.IncExecution(string(result.Outcome))
	return result
}

// restockEventID is stable for a given product and set of cleared subscriptions,
// so republishing after a failed commit carries the same message id.
func restockEventID(productID int64, ids []uuid.UUID) string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}
	sort.Strings(keys)

	name := strconv.FormatInt(productID, 10) + ":" + strings.Join(keys, ",")
	return uuid.NewV5(restockEventNamespace, name).String()
}
