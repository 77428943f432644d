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

// msgPublisher is the part of jetstream.JetStream the publisher needs.
type msgPublisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

type restockBroker struct {
	js  msgPublisher
	now func() time.Time
}

func NewRestockBrokerPublisher(js jetstream.JetStream) domain.NotificationPublisher {
	return newRestockBroker(js)
}

func newRestockBroker(js msgPublisher) *restockBroker {
	return &restockBroker{
		js:  js,
		now: time.Now,
	}
}

func (b *restockBroker) Publish(ctx context.Context, event domain.Event) error {
	msg, err := b.message(ctx, event)
	if err != nil {
		return err
	}
	return b.publish(ctx, msg)
}

func (b *restockBroker) PublishDelayed(ctx context.Context, event domain.Event, delay time.Duration) error {
	msg, err := b.message(ctx, event)
	if err != nil {
		return err
	}
	if delay > 0 {
		msg.Header.Set(domain.HeaderNotBefore, b.now().Add(delay).UTC().Format(time.RFC3339Nano))
	}
	return b.publish(ctx, msg)
}

func (b *restockBroker) message(ctx context.Context, event domain.Event) (*nats.Msg, error) {
	data, err := json.Marshal(event.Payload)
	if err != nil {
		slog.ErrorContext(ctx, "[restockBroker] message", "json.Marshal", err)
		return nil, fmt.Errorf("marshal %s: %w", event.Name, err)
	}

	msg := nats.NewMsg(event.Name)
	msg.Data = data
	if event.ID != "" {
		// JetStream drops a second message with the same id inside the duplicate window.
		msg.Header.Set(nats.MsgIdHdr, event.ID)
	}
	return msg, nil
}

func (b *restockBroker) publish(ctx context.Context, msg *nats.Msg) error {
	ack, err := b.js.PublishMsg(ctx, msg)
	if err != nil {
		slog.ErrorContext(ctx, "[restockBroker] Publish", "subject", msg.Subject, "PublishMsg", err)
		return err
	}

	slog.InfoContext(ctx, "[restockBroker] Publish",
		"subject", msg.Subject,
		"msgID", msg.Header.Get(nats.MsgIdHdr),
		"stream", ack.Stream,
		"sequence", ack.Sequence,
		"duplicate", ack.Duplicate)
	return nil
}
