package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/asookemart/asooke-backend/pkg/logger"
	"github.com/asookemart/asooke-backend/pkg/mailer"
	"github.com/asookemart/asooke-backend/pkg/redis"
)

const (
	consumerScope  = "notification-consumer"
	processedTTL   = 72 * time.Hour
	processedValue = "1"
)

// Consumer drains the notification subscription and sends each email once.
type Consumer struct {
	subscription *pubsub.Subscriber
	sender       mailer.Sender
	store        redis.IdempotencyStore
	logg         *logger.Logger
}

func NewConsumer(subscription *pubsub.Subscriber, sender mailer.Sender, store redis.IdempotencyStore, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if store == nil {
		return nil, fmt.Errorf("idempotency store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{subscription: subscription, sender: sender, store: store, logg: logg}, nil
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg.ID, msg.Attributes, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process returns true when the message should be acked.
func (c *Consumer) process(ctx context.Context, messageID string, attrs map[string]string, data []byte) bool {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": attrs[eventTypeAttribute],
	})

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logg.Error(logCtx, "notification.decode_failed", err)
		return true
	}
	if !env.Type.IsValid() {
		c.logg.Warn(logCtx, "notification.unknown_type")
		return true
	}

	dedupeID := env.ID.String()
	key := c.store.IdempotencyKey(consumerScope, dedupeID)
	fresh, err := c.store.SetNX(ctx, key, processedValue, processedTTL)
	if err != nil {
		c.logg.Error(logCtx, "notification.idempotency_failed", err)
		return false
	}
	if !fresh {
		c.logg.Info(logCtx, "notification.duplicate")
		return true
	}

	msg, err := Render(env)
	if err != nil {
		c.logg.Error(logCtx, "notification.render_failed", err)
		return true
	}

	if err := c.sender.Send(ctx, msg); err != nil {
		c.logg.Error(logCtx, "notification.send_failed", err)
		_ = c.store.Del(ctx, key)
		return false
	}

	c.logg.Info(logCtx, "notification.sent")
	return true
}
