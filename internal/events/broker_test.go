package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptex_errors "cryptex/pkg/errors"
)

// failingSubscriber rejects every delivery.
type failingSubscriber struct {
	stubSubscriber
}

func (s *failingSubscriber) Deliver(ctx context.Context, frame []byte) error {
	return errors.New("connection reset")
}

func newTestBroker(t *testing.T) (*FanoutBroker, *Registry) {
	t.Helper()
	registry := NewRegistry()
	return NewFanoutBroker(registry, 100*time.Millisecond, nil), registry
}

func TestPublishFansOutToRoomMembers(t *testing.T) {
	broker, _ := newTestBroker(t)
	a := newStubSubscriber("a")
	b := newStubSubscriber("b")
	c := newStubSubscriber("c")
	other := newStubSubscriber("other")

	require.NoError(t, broker.Join("trade:42", a))
	require.NoError(t, broker.Join("trade:42", b))
	require.NoError(t, broker.Join("trade:42", c))
	require.NoError(t, broker.Join("trade:99", other))

	broker.Publish(context.Background(), "trade:42", TradeMessage{Raw: []byte("hello")})

	for _, sub := range []*stubSubscriber{a, b, c} {
		assert.Equal(t, []string{"hello"}, sub.received(), "subscriber %s", sub.ID())
	}
	assert.Empty(t, other.received(), "other room must see nothing")
}

func TestPublishToEmptyRoomIsNoOp(t *testing.T) {
	broker, _ := newTestBroker(t)
	broker.Publish(context.Background(), "trade:42", TradeMessage{Raw: []byte("hello")})
}

func TestFailedDeliveryEvictsOnlyTheDeadSubscriber(t *testing.T) {
	broker, registry := newTestBroker(t)
	dead := &failingSubscriber{stubSubscriber{id: "dead"}}
	alive := newStubSubscriber("alive")

	require.NoError(t, broker.Join("trade:42", dead))
	require.NoError(t, broker.Join("trade:42", alive))

	broker.Publish(context.Background(), "trade:42", TradeMessage{Raw: []byte("hello")})

	assert.Equal(t, []string{"hello"}, alive.received())
	assert.True(t, dead.wasKilled())

	members := registry.Members("trade:42")
	require.Len(t, members, 1)
	assert.Equal(t, "alive", members[0].ID())
}

func TestSlowSubscriberDeliveryIsBounded(t *testing.T) {
	broker, registry := newTestBroker(t)
	slow := newStubSubscriber("slow")
	slow.block = true
	alive := newStubSubscriber("alive")

	require.NoError(t, broker.Join("trade:42", slow))
	require.NoError(t, broker.Join("trade:42", alive))

	start := time.Now()
	broker.Publish(context.Background(), "trade:42", TradeMessage{Raw: []byte("hello")})
	elapsed := time.Since(start)

	assert.Less(t, elapsed, time.Second, "publish must not block past the delivery timeout")
	assert.True(t, slow.wasKilled())
	assert.Equal(t, []string{"hello"}, alive.received())

	members := registry.Members("trade:42")
	require.Len(t, members, 1)
	assert.Equal(t, "alive", members[0].ID())
}

func TestSequentialPublishesArriveInOrder(t *testing.T) {
	broker, _ := newTestBroker(t)
	sub := newStubSubscriber("a")
	require.NoError(t, broker.Join("trade:42", sub))

	ctx := context.Background()
	broker.Publish(ctx, "trade:42", TradeMessage{Raw: []byte("one")})
	broker.Publish(ctx, "trade:42", TradeMessage{Raw: []byte("two")})
	broker.Publish(ctx, "trade:42", TradeMessage{Raw: []byte("three")})

	assert.Equal(t, []string{"one", "two", "three"}, sub.received())
}

func TestPublishEncodesEventOnce(t *testing.T) {
	broker, _ := newTestBroker(t)
	sub := newStubSubscriber("a")
	require.NoError(t, broker.Join("trade:42", sub))

	broker.Publish(context.Background(), "trade:42", TradeCancelled{
		CancelledBy: "system",
		TradeID:     "42",
		Message:     CancelledMessage("42"),
	})

	frames := sub.received()
	require.Len(t, frames, 1)
	assert.Contains(t, frames[0], `"transaction_cancelled"`)
}

func TestDuplicateJoinSurfacesThroughBroker(t *testing.T) {
	broker, _ := newTestBroker(t)
	sub := newStubSubscriber("a")

	require.NoError(t, broker.Join("trade:42", sub))
	assert.ErrorIs(t, broker.Join("trade:42", sub), cryptex_errors.ErrAlreadyJoined)
}
