package controllers

import (
	"net/http"

	"github.com/asookemart/asooke-backend/api/responses"
	"github.com/asookemart/asooke-backend/api/validators"
	"github.com/asookemart/asooke-backend/internal/delivery"
	"github.com/asookemart/asooke-backend/pkg/logger"
)

type sendOTPRequest struct {
	OrderNumber string `json:"order_number" validate:"required"`
}

type verifyOTPRequest struct {
	OrderNumber string `json:"order_number" validate:"required"`
	OTP         int    `json:"otp" validate:"required,gte=0,lte=999999"`
}

type markDeliveredRequest struct {
	OrderNumber string `json:"order_number" validate:"required"`
	Notes       string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Stars       int    `json:"stars,omitempty"`
}

func RiderProfile(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "delivery")
			return
		}
		riderID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		profile, err := svc.Profile(r.Context(), riderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func RiderRecentDeliveries(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "delivery")
			return
		}
		riderID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		items, err := svc.RecentDeliveries(r.Context(), riderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func RiderAssignedOrders(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "delivery")
			return
		}
		riderID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		items, err := svc.AssignedOrders(r.Context(), riderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// RiderSendOTP emails the customer a delivery code; only in-transit orders qualify.
func RiderSendOTP(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "delivery")
			return
		}
		riderID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var body sendOTPRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sent, err := svc.SendOTP(r.Context(), riderID, body.OrderNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sent)
	}
}

func RiderVerifyOTP(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "delivery")
			return
		}
		riderID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var body verifyOTPRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.VerifyOTP(r.Context(), riderID, body.OrderNumber, body.OTP)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// RiderMarkDelivered closes out a verified delivery and records optional feedback.
func RiderMarkDelivered(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "delivery")
			return
		}
		riderID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var body markDeliveredRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.MarkDelivered(r.Context(), riderID, delivery.MarkDeliveredInput{
			OrderNumber: body.OrderNumber,
			Notes:       body.Notes,
			Stars:       body.Stars,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
