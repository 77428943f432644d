package broker

import (
	"context"
	"encoding/json"
	"errors"
	"restock-service/app/domain"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJetStream struct {
	publishMsgFn func(ctx context.Context, msg *nats.Msg) (*jetstream.PubAck, error)
	published    []*nats.Msg
}

func (f *fakeJetStream) PublishMsg(ctx context.Context, msg *nats.Msg, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	f.published = append(f.published, msg)
	if f.publishMsgFn != nil {
		return f.publishMsgFn(ctx, msg)
	}
	return &jetstream.PubAck{Stream: "RESTOCK", Sequence: uint64(len(f.published))}, nil
}

func TestPublishSetsSubjectPayloadAndMsgID(t *testing.T) {
	js := &fakeJetStream{}
	b := newRestockBroker(js)

	err := b.Publish(context.Background(), domain.Event{
		Name:    domain.EventRestockRestocked,
		ID:      "evt-1",
		Payload: domain.RestockedProduct{ProductID: 10, Available: 3},
	})
	require.NoError(t, err)
	require.Len(t, js.published, 1)

	msg := js.published[0]
	assert.Equal(t, domain.EventRestockRestocked, msg.Subject)
	assert.Equal(t, "evt-1", msg.Header.Get(nats.MsgIdHdr))
	assert.Empty(t, msg.Header.Get(domain.HeaderNotBefore))

	var product domain.RestockedProduct
	require.NoError(t, json.Unmarshal(msg.Data, &product))
	assert.Equal(t, domain.RestockedProduct{ProductID: 10, Available: 3}, product)
}

func TestPublishWithoutIDLeavesDedupHeaderUnset(t *testing.T) {
	js := &fakeJetStream{}
	b := newRestockBroker(js)

	require.NoError(t, b.Publish(context.Background(), domain.Event{Name: domain.EventRestockExecute, Payload: domain.RestockExecuteMessage{ProductID: 1}}))
	assert.Empty(t, js.published[0].Header.Get(nats.MsgIdHdr))
}

func TestPublishDelayedSetsNotBefore(t *testing.T) {
	js := &fakeJetStream{}
	b := newRestockBroker(js)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b.now = func() time.Time { return now }

	err := b.PublishDelayed(context.Background(), domain.Event{
		Name:    domain.EventRestockExecute,
		Payload: domain.RestockExecuteMessage{ProductID: 10},
	}, 30*time.Second)
	require.NoError(t, err)

	notBefore, err := time.Parse(time.RFC3339Nano, js.published[0].Header.Get(domain.HeaderNotBefore))
	require.NoError(t, err)
	assert.True(t, notBefore.Equal(now.Add(30*time.Second)))
}

func TestPublishReturnsBrokerError(t *testing.T) {
	unavailable := errors.New("nats: no responders available for request")
	js := &fakeJetStream{
		publishMsgFn: func(ctx context.Context, msg *nats.Msg) (*jetstream.PubAck, error) {
			return nil, unavailable
		},
	}
	b := newRestockBroker(js)

	err := b.Publish(context.Background(), domain.Event{Name: domain.EventRestockRestocked, Payload: struct{}{}})
	assert.ErrorIs(t, err, unavailable)
}

func TestPublishRejectsUnmarshalablePayload(t *testing.T) {
	js := &fakeJetStream{}
	b := newRestockBroker(js)

	err := b.Publish(context.Background(), domain.Event{Name: domain.EventRestockRestocked, Payload: make(chan int)})
	require.Error(t, err)
	assert.Empty(t, js.published)
}
