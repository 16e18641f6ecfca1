package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/asookemart/asooke-backend/api/responses"
	"github.com/asookemart/asooke-backend/api/validators"
	"github.com/asookemart/asooke-backend/internal/cart"
	"github.com/asookemart/asooke-backend/pkg/logger"
)

type addCartItemRequest struct {
	ProductID   uuid.UUID       `json:"product_id" validate:"required"`
	Quantity    int             `json:"quantity" validate:"required,gte=1"`
	Description json.RawMessage `json:"description,omitempty"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

type cartRegionRequest struct {
	State string `json:"state" validate:"required,max=100"`
}

type reorderRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

func CartGet(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cart")
			return
		}
		uid, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		dto, err := svc.Get(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// CartAddItem adds a product or bumps the quantity of the existing line.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cart")
			return
		}
		uid, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var body addCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.AddItem(r.Context(), uid, cart.AddItemInput{
			ProductID:   body.ProductID,
			Quantity:    body.Quantity,
			Description: body.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func CartUpdateItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cart")
			return
		}
		uid, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		itemID, ok := uuidParam(w, r, logg, "itemID")
		if !ok {
			return
		}

		var body updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.UpdateQuantity(r.Context(), uid, itemID, body.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, svc, uid, logg)
	}
}

func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cart")
			return
		}
		uid, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		itemID, ok := uuidParam(w, r, logg, "itemID")
		if !ok {
			return
		}

		if err := svc.RemoveItem(r.Context(), uid, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, svc, uid, logg)
	}
}

// CartSetRegion picks the delivery state and returns the repriced cart.
func CartSetRegion(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cart")
			return
		}
		uid, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var body cartRegionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.SetRegion(r.Context(), uid, body.State)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func CartReorder(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cart")
			return
		}
		uid, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var body reorderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		added, err := svc.Reorder(r.Context(), uid, body.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"added": added})
	}
}

func writeCart(w http.ResponseWriter, r *http.Request, svc cart.Service, uid uuid.UUID, logg *logger.Logger) {
	dto, err := svc.Get(r.Context(), uid)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, dto)
}
