package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"restock-service/app/domain"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// RestockHandler runs deferred restock executions published by TriggerRestock.
type RestockHandler struct {
	restockUsecase domain.RestockTriggerService
	now            func() time.Time
}

func NewRestockHandler(restockUsecase domain.RestockTriggerService) *RestockHandler {
	return &RestockHandler{restockUsecase: restockUsecase, now: time.Now}
}

func (h *RestockHandler) Handle(ctx context.Context, msg jetstream.Msg) {
	retryAfter, err := h.handle(ctx, msg.Data(), msg.Headers())
	settle(ctx, msg, retryAfter, err)
}

// handle returns a positive duration when the message is not due yet.
func (h *RestockHandler) handle(ctx context.Context, data []byte, header nats.Header) (time.Duration, error) {
	if notBefore := header.Get(domain.HeaderNotBefore); notBefore != "" {
		due, err := time.Parse(time.RFC3339Nano, notBefore)
		if err != nil {
			slog.WarnContext(ctx, "[RestockHandler] handle", "invalidNotBefore", notBefore)
		} else if wait := due.Sub(h.now()); wait > 0 {
			return wait, nil
		}
	}

	var msg domain.RestockExecuteMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.ProductID <= 0 {
		return 0, fmt.Errorf("%w: invalid %s payload", domain.ErrBadRequest, domain.EventRestockExecute)
	}

	result, err := h.restockUsecase.RestockExecute(ctx, msg.ProductID)
	if err != nil {
		slog.ErrorContext(ctx, "[RestockHandler] handle", "restockExecute", err)
		return 0, err
	}

	slog.InfoContext(ctx, "[RestockHandler] handle", "productID", msg.ProductID, "outcome", result.Outcome, "notified", result.Notified)
	return 0, nil
}
