package redisfan

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/settle-hub/settle-hub/internal/domain/event"
	"github.com/settle-hub/settle-hub/internal/infrastructure/sse"
)

const channelPrefix = "settlement:room:"

// Bridge is an event.Channel that fans out locally through the SSE hub and
// cross-instance through redis pub/sub. Envelopes carry an origin id so an
// instance does not re-deliver its own publishes when they come back off
// the wire. A nil redis client degrades to hub-only delivery.
type Bridge struct {
	hub      *sse.Hub
	rdb      *redis.Client
	instance string
	logger   zerolog.Logger
}

func NewBridge(hub *sse.Hub, rdb *redis.Client, logger zerolog.Logger) *Bridge {
	return &Bridge{
		hub:      hub,
		rdb:      rdb,
		instance: uuid.NewString(),
		logger:   logger.With().Str("component", "redisfan").Logger(),
	}
}

// Publish implements event.Channel.
func (b *Bridge) Publish(ctx context.Context, roomID, name string, payload any) error {
	env, err := event.NewEnvelope(roomID, name, payload)
	if err != nil {
		return err
	}
	env.Origin = b.instance

	b.hub.Broadcast(env)

	if b.rdb == nil {
		return nil
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, channelPrefix+roomID, data).Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

// Run subscribes to every room channel and re-broadcasts remote envelopes
// into the local hub. Blocks until ctx is cancelled. No-op without redis.
func (b *Bridge) Run(ctx context.Context) error {
	if b.rdb == nil {
		<-ctx.Done()
		return nil
	}

	pubsub := b.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env event.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn().Err(err).Str("channel", msg.Channel).Msg("bad envelope on wire")
				continue
			}
			if env.Origin == b.instance {
				continue
			}
			b.hub.Broadcast(&env)
		case <-ctx.Done():
			return nil
		}
	}
}
