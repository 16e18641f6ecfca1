package checkout

import (
	"context"
	"encoding/json"
	"fmt"

	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/logger"
	"github.com/asookemart/asooke-backend/pkg/paystack"
)

var ErrInvalidSignature = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature")

type signatureVerifier interface {
	VerifySignature(body []byte, signature string) bool
}

// WebhookProcessor confirms orders from provider push notifications, for
// buyers who close the tab before the redirect lands.
type WebhookProcessor struct {
	verifier signatureVerifier
	checkout Service
	logg     *logger.Logger
}

func NewWebhookProcessor(verifier signatureVerifier, checkout Service, logg *logger.Logger) (*WebhookProcessor, error) {
	if verifier == nil {
		return nil, fmt.Errorf("signature verifier required")
	}
	if checkout == nil {
		return nil, fmt.Errorf("checkout service required")
	}
	return &WebhookProcessor{verifier: verifier, checkout: checkout, logg: logg}, nil
}

// Process authenticates and handles one webhook delivery. Events other than
// charge.success are acknowledged without action.
func (p *WebhookProcessor) Process(ctx context.Context, body []byte, signature string) error {
	if !p.verifier.VerifySignature(body, signature) {
		return ErrInvalidSignature
	}
	var event paystack.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload")
	}
	if p.logg != nil {
		ctx = p.logg.WithFields(ctx, map[string]any{"event": event.Event, "payment_reference": event.Data.Reference})
	}
	if event.Event != paystack.EventChargeSuccess {
		if p.logg != nil {
			p.logg.Info(ctx, "paystack.webhook_ignored")
		}
		return nil
	}

	result, err := p.checkout.Confirm(ctx, event.Data.Reference)
	if err != nil {
		return err
	}
	if p.logg != nil {
		p.logg.Info(p.logg.WithField(ctx, "already_processed", result.AlreadyProcessed), "paystack.webhook_confirmed")
	}
	return nil
}
