package controllers

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/asookemart/asooke-backend/api/responses"
	"github.com/asookemart/asooke-backend/api/validators"
	"github.com/asookemart/asooke-backend/internal/checkout"
	"github.com/asookemart/asooke-backend/pkg/config"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/logger"
)

const (
	paystackSignatureHeader = "x-paystack-signature"
	maxWebhookBody          = 1 << 20
)

// CheckoutInitiate prices the cart, checks the displayed total and opens a
// hosted payment page.
func CheckoutInitiate(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "checkout")
			return
		}
		uid, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var body checkout.ShippingInfo
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Initiate(r.Context(), uid, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// CheckoutConfirm is where the provider sends the buyer after paying.
func CheckoutConfirm(svc checkout.Service, app config.AppConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reference := strings.TrimSpace(r.URL.Query().Get("reference"))
		failed := func(err error) {
			q := url.Values{}
			q.Set("reference", reference)
			q.Set("error", errorMessage(err))
			redirectTo(w, r, app, pageCheckoutFailed, q)
		}

		if svc == nil {
			failed(pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		if reference == "" {
			failed(checkout.ErrInvalidReference)
			return
		}

		result, err := svc.Confirm(r.Context(), reference)
		if err != nil {
			if logg != nil {
				logg.Error(logg.WithField(r.Context(), "payment_reference", reference), "checkout.confirm_failed", err)
			}
			failed(err)
			return
		}

		q := url.Values{}
		q.Set("order_id", result.OrderID.String())
		q.Set("order_number", result.OrderNumber)
		q.Set("amount", result.Amount)
		q.Set("created_at", result.CreatedAt.UTC().Format(time.RFC3339))
		redirectTo(w, r, app, pageCheckoutOK, q)
	}
}

// PaystackWebhook acknowledges provider events. Failures answer non-2xx so the
// provider retries the delivery.
func PaystackWebhook(processor *checkout.WebhookProcessor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if processor == nil {
			unavailable(w, r, logg, "webhook")
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}

		if err := processor.Process(r.Context(), body, r.Header.Get(paystackSignatureHeader)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// errorMessage keeps internal error text out of redirect URLs.
func errorMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && pkgerrors.MetadataFor(typed.Code()).HTTPStatus < http.StatusInternalServerError {
		return typed.Message()
	}
	return checkout.ErrCheckoutFailed.Message()
}
