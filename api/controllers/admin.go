package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/asookemart/asooke-backend/api/responses"
	"github.com/asookemart/asooke-backend/api/validators"
	"github.com/asookemart/asooke-backend/internal/admin"
	"github.com/asookemart/asooke-backend/internal/orders"
	product "github.com/asookemart/asooke-backend/internal/products"
	"github.com/asookemart/asooke-backend/pkg/enums"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/logger"
)

const maxImportRows = 500

type appendTrackingRequest struct {
	Status      string `json:"status" validate:"required"`
	Description string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

type assignRiderRequest struct {
	RiderID uuid.UUID `json:"rider_id" validate:"required"`
}

type createRiderRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,ngphone"`
	Password  string `json:"password,omitempty" validate:"omitempty,min=8"`
}

type activateProductsRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

func AdminStats(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "admin")
			return
		}
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func AdminOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "order")
			return
		}
		items, page, err := svc.AdminList(r.Context(), pageParams(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, items, page)
	}
}

// AdminAppendTracking appends a status to the order ledger. Sequence rules are
// enforced by the ledger, so out-of-order statuses come back as 409.
func AdminAppendTracking(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "order")
			return
		}
		orderID, ok := uuidParam(w, r, logg, "orderID")
		if !ok {
			return
		}

		var body appendTrackingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseTrackingStatus(strings.TrimSpace(body.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		entry, err := svc.AppendTracking(r.Context(), orders.AppendTrackingInput{
			OrderID:     orderID,
			Status:      status,
			Description: body.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

func AdminAssignRider(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "order")
			return
		}
		orderID, ok := uuidParam(w, r, logg, "orderID")
		if !ok {
			return
		}

		var body assignRiderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.AssignRider(r.Context(), orderID, body.RiderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"order_id": orderID.String(), "rider_id": body.RiderID.String()})
	}
}

func AdminCreateRider(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "admin")
			return
		}

		var body createRiderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rider, err := svc.CreateRider(r.Context(), admin.CreateRiderInput{
			Email:     body.Email,
			FirstName: body.FirstName,
			LastName:  body.LastName,
			Phone:     body.Phone,
			Password:  body.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rider)
	}
}

// AdminImportProducts takes a JSON array of rows. Rows are validated one by one
// and failures are reported by index; created products stay hidden until activated.
func AdminImportProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}

		var rows []product.ImportProductInput
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"error": err.Error()}))
			return
		}
		if len(rows) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "at least one product is required"))
			return
		}
		if len(rows) > maxImportRows {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "too many products in one import").WithDetails(map[string]any{"max": maxImportRows}))
			return
		}

		result, err := svc.Import(r.Context(), rows)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusCreated
		if result.ProductsCreated == 0 {
			status = http.StatusBadRequest
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

func AdminActivateProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}

		var body activateProductsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		activated, err := svc.Activate(r.Context(), body.IDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"activated": activated})
	}
}
