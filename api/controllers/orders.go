package controllers

import (
	"net/http"

	"github.com/asookemart/asooke-backend/api/responses"
	"github.com/asookemart/asooke-backend/internal/orders"
	"github.com/asookemart/asooke-backend/pkg/logger"
)

// OrderList pages through the caller's orders, newest first.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "order")
			return
		}
		uid, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		items, page, err := svc.List(r.Context(), uid, pageParams(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, items, page)
	}
}

func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "order")
			return
		}
		uid, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		orderID, ok := uuidParam(w, r, logg, "orderID")
		if !ok {
			return
		}

		detail, err := svc.Detail(r.Context(), uid, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}
