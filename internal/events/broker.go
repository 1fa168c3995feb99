package events

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Broker is the process-wide pub/sub primitive. Delivery is best-effort
// and at-most-once: no ack, no retry, no durability beyond current
// connectivity. A failed delivery never surfaces to the publisher.
type Broker interface {
	Join(room string, sub Subscriber) error
	Leave(room string, sub Subscriber)
	Publish(ctx context.Context, room string, event Event)
}

// FanoutBroker delivers events to every subscriber in a room's
// snapshot. Each per-subscriber attempt is bounded by deliveryTimeout;
// a subscriber that fails or times out is evicted from the registry and
// force-closed so membership self-heals.
type FanoutBroker struct {
	registry        *Registry
	deliveryTimeout time.Duration
	logger          *zap.Logger
}

func NewFanoutBroker(registry *Registry, deliveryTimeout time.Duration, logger *zap.Logger) *FanoutBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FanoutBroker{
		registry:        registry,
		deliveryTimeout: deliveryTimeout,
		logger:          logger.With(zap.String("component", "broker")),
	}
}

func (b *FanoutBroker) Join(room string, sub Subscriber) error {
	return b.registry.Join(room, sub)
}

func (b *FanoutBroker) Leave(room string, sub Subscriber) {
	b.registry.Leave(room, sub)
}

// Publish encodes the event once and fans it out to the room's current
// members. Deliveries run in sequence so two events published by the
// same caller reach each subscriber in publish order.
func (b *FanoutBroker) Publish(ctx context.Context, room string, event Event) {
	frame, err := event.Encode()
	if err != nil {
		b.logger.Error("event encode failed",
			zap.String("room", room),
			zap.Error(err))
		return
	}
	b.Broadcast(ctx, room, frame)
}

// Broadcast delivers an already-encoded frame to the room. It is the
// entry point for frames arriving from a distributed backing layer.
func (b *FanoutBroker) Broadcast(ctx context.Context, room string, frame []byte) {
	for _, sub := range b.registry.Members(room) {
		b.deliver(ctx, room, sub, frame)
	}
}

func (b *FanoutBroker) deliver(ctx context.Context, room string, sub Subscriber, frame []byte) {
	dctx, cancel := context.WithTimeout(ctx, b.deliveryTimeout)
	defer cancel()

	if err := sub.Deliver(dctx, frame); err != nil {
		b.logger.Warn("delivery failed, evicting subscriber",
			zap.String("room", room),
			zap.String("subscriber_id", sub.ID()),
			zap.Error(err))
		b.registry.Leave(room, sub)
		sub.Kill()
	}
}
