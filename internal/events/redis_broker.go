package events

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const roomChannelPrefix = "room:"

// RedisBroker backs the room fan-out with Redis pub/sub so multiple
// nodes share one broker. Publishes go to the Redis channel for the
// room; the Run loop receives frames from every node (this one
// included) and hands them to the local fan-out. Delivery guarantees
// are unchanged: best-effort, at-most-once per connected subscriber.
type RedisBroker struct {
	local  *FanoutBroker
	client *redis.Client
	logger *zap.Logger
}

func NewRedisBroker(local *FanoutBroker, client *redis.Client, logger *zap.Logger) *RedisBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBroker{
		local:  local,
		client: client,
		logger: logger.With(zap.String("component", "redis_broker")),
	}
}

func (b *RedisBroker) Join(room string, sub Subscriber) error {
	return b.local.Join(room, sub)
}

func (b *RedisBroker) Leave(room string, sub Subscriber) {
	b.local.Leave(room, sub)
}

// Publish encodes the event and hands the frame to Redis. Local
// subscribers receive it through the Run loop like everyone else. If
// Redis is down the frame is delivered locally so a single-node setup
// keeps working.
func (b *RedisBroker) Publish(ctx context.Context, room string, event Event) {
	frame, err := event.Encode()
	if err != nil {
		b.logger.Error("event encode failed",
			zap.String("room", room),
			zap.Error(err))
		return
	}

	if err := b.client.Publish(ctx, roomChannelPrefix+room, frame).Err(); err != nil {
		b.logger.Warn("redis publish failed, delivering locally",
			zap.String("room", room),
			zap.Error(err))
		b.local.Broadcast(ctx, room, frame)
	}
}

// Run subscribes to all room channels and feeds incoming frames into
// the local fan-out. It blocks until ctx is cancelled.
func (b *RedisBroker) Run(ctx context.Context) error {
	sub := b.client.PSubscribe(ctx, roomChannelPrefix+"*")
	defer sub.Close()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		room := strings.TrimPrefix(msg.Channel, roomChannelPrefix)
		b.local.Broadcast(ctx, room, []byte(msg.Payload))
	}
}
