package controllers

import (
	"net/http"

	"github.com/asookemart/asooke-backend/api/responses"
	"github.com/asookemart/asooke-backend/internal/watchlist"
	"github.com/asookemart/asooke-backend/pkg/logger"
)

func WatchlistList(svc watchlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "watchlist")
			return
		}
		uid, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		items, err := svc.List(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// WatchlistToggle adds the product when absent and removes it otherwise.
func WatchlistToggle(svc watchlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "watchlist")
			return
		}
		uid, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		productID, ok := uuidParam(w, r, logg, "productID")
		if !ok {
			return
		}

		result, err := svc.Toggle(r.Context(), uid, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func WatchlistClear(svc watchlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "watchlist")
			return
		}
		uid, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		removed, err := svc.RemoveAll(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"removed": removed})
	}
}

func WatchlistMoveToCart(svc watchlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "watchlist")
			return
		}
		uid, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		moved, err := svc.MoveAllToCart(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"moved": moved})
	}
}

// HeaderCounts returns the cart and watchlist badge numbers.
func HeaderCounts(svc watchlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "watchlist")
			return
		}
		uid, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		counts, err := svc.Counts(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, counts)
	}
}
