package broker

import (
	"context"
	"errors"
	"log/slog"
	"restock-service/app/domain"
	"restock-service/pkg/ctxutil"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

type consumerManager interface {
	CreateOrUpdateConsumer(ctx context.Context, stream string, cfg jetstream.ConsumerConfig) (jetstream.Consumer, error)
}

// HandlerFunc processes one message. Settling the message is up to the handler.
type HandlerFunc func(ctx context.Context, msg jetstream.Msg)

// Consumer binds a durable pull consumer to a handler.
type Consumer struct {
	js      consumerManager
	stream  string
	cfg     jetstream.ConsumerConfig
	handler HandlerFunc
}

func NewConsumer(js jetstream.JetStream, stream, durable string, subjects []string, handler HandlerFunc) *Consumer {
	return &Consumer{
		js:     js,
		stream: stream,
		cfg: jetstream.ConsumerConfig{
			Durable:        durable,
			FilterSubjects: subjects,
			AckPolicy:      jetstream.AckExplicitPolicy,
			AckWait:        30 * time.Second,
		},
		handler: handler,
	}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	cons, err := c.js.CreateOrUpdateConsumer(ctx, c.stream, c.cfg)
	if err != nil {
		slog.ErrorContext(ctx, "[Consumer] Run", "durable", c.cfg.Durable, "CreateOrUpdateConsumer", err)
		return err
	}

	consumeCtx, err := cons.Consume(func(msg jetstream.Msg) {
		c.handler(messageContext(ctx, msg), msg)
	})
	if err != nil {
		slog.ErrorContext(ctx, "[Consumer] Run", "durable", c.cfg.Durable, "Consume", err)
		return err
	}

	slog.InfoContext(ctx, "[Consumer] Run", "stream", c.stream, "durable", c.cfg.Durable, "subjects", c.cfg.FilterSubjects)
	<-ctx.Done()
	consumeCtx.Stop()
	return nil
}

// messageContext carries the broker message id as request id for log correlation.
func messageContext(ctx context.Context, msg jetstream.Msg) context.Context {
	reqID := msg.Headers().Get(nats.MsgIdHdr)
	if reqID == "" {
		if id, err := uuid.NewV4(); err == nil {
			reqID = id.String()
		}
	}
	return ctxutil.WithRequestID(ctx, reqID)
}

type acker interface {
	Ack() error
	Nak() error
	NakWithDelay(delay time.Duration) error
	Term() error
}

// settle acks handled messages, terminates ones that can never succeed and naks
// the rest for redelivery.
func settle(ctx context.Context, msg acker, retryAfter time.Duration, err error) {
	var settleErr error
	switch {
	case err == nil && retryAfter > 0:
		settleErr = msg.NakWithDelay(retryAfter)
	case err == nil:
		settleErr = msg.Ack()
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrNotFound):
		slog.WarnContext(ctx, "[Consumer] settle", "term", err)
		settleErr = msg.Term()
	default:
		slog.ErrorContext(ctx, "[Consumer] settle", "nak", err)
		settleErr = msg.Nak()
	}

	if settleErr != nil {
		slog.ErrorContext(ctx, "[Consumer] settle", "ack", settleErr)
	}
}
