package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/asookemart/asooke-backend/pkg/enums"
	"github.com/asookemart/asooke-backend/pkg/logger"
	"github.com/asookemart/asooke-backend/pkg/mailer"
)

const (
	defaultSendTimeout    = 15 * time.Second
	defaultPublishTimeout = 10 * time.Second
	eventTypeAttribute    = "event_type"
)

// Dispatcher hands an envelope off for delivery. Implementations must not block
// on the email provider.
type Dispatcher interface {
	Dispatch(ctx context.Context, env Envelope) error
}

// MailDispatcher renders the envelope and sends it from a detached goroutine.
type MailDispatcher struct {
	sender  mailer.Sender
	logg    *logger.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewMailDispatcher(sender mailer.Sender, logg *logger.Logger) (*MailDispatcher, error) {
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	return &MailDispatcher{sender: sender, logg: logg, timeout: defaultSendTimeout}, nil
}

func (d *MailDispatcher) Dispatch(ctx context.Context, env Envelope) error {
	msg, err := Render(env)
	if err != nil {
		return err
	}

	detached := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		sendCtx, cancel := context.WithTimeout(detached, d.timeout)
		defer cancel()
		if err := d.sender.Send(sendCtx, msg); err != nil && d.logg != nil {
			logCtx := d.logg.WithFields(detached, map[string]any{
				"notification_id":   env.ID.String(),
				"notification_type": string(env.Type),
			})
			d.logg.Error(logCtx, "notification.send_failed", err)
		}
	}()
	return nil
}

// Wait blocks until in-flight sends finish. Used on shutdown.
func (d *MailDispatcher) Wait() {
	d.wg.Wait()
}

type publisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

// PubSubDispatcher queues envelopes on the notification topic for cmd/worker.
type PubSubDispatcher struct {
	pub     publisher
	timeout time.Duration
}

func NewPubSubDispatcher(p *pubsub.Publisher) (*PubSubDispatcher, error) {
	if p == nil {
		return nil, fmt.Errorf("notification publisher required")
	}
	return &PubSubDispatcher{pub: &gcpPublisher{Publisher: p}, timeout: defaultPublishTimeout}, nil
}

func (d *PubSubDispatcher) Dispatch(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	msg := &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			eventTypeAttribute: string(env.Type),
			"notification_id":  env.ID.String(),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	result := d.pub.Publish(publishCtx, msg)
	if result == nil {
		return errors.New("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

type gcpPublisher struct {
	*pubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *pubsub.Message) publishResult {
	return p.Publisher.Publish(ctx, msg)
}

// Notifier adapts domain events onto a Dispatcher.
type Notifier struct {
	dispatcher Dispatcher
}

func NewNotifier(dispatcher Dispatcher) (*Notifier, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	return &Notifier{dispatcher: dispatcher}, nil
}

func (n *Notifier) OrderStatusChanged(ctx context.Context, ev OrderStatusEvent) error {
	return n.dispatcher.Dispatch(ctx, Envelope{
		ID:          uuid.New(),
		Type:        enums.NotificationTypeOrderStatus,
		OrderStatus: &ev,
	})
}

func (n *Notifier) DeliveryConfirmed(ctx context.Context, ev DeliveryConfirmedEvent) error {
	return n.dispatcher.Dispatch(ctx, Envelope{
		ID:                uuid.New(),
		Type:              enums.NotificationTypeDeliveryConfirmation,
		DeliveryConfirmed: &ev,
	})
}
