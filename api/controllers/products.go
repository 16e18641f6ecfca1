package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/asookemart/asooke-backend/api/middleware"
	"github.com/asookemart/asooke-backend/api/responses"
	"github.com/asookemart/asooke-backend/api/validators"
	product "github.com/asookemart/asooke-backend/internal/products"
	"github.com/asookemart/asooke-backend/pkg/enums"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/logger"
)

// ProductList serves the public catalog with filters, search and ordering.
func ProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}

		filters, err := parseProductFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, page, err := svc.List(r.Context(), product.ListProductsInput{
			Filters:    filters,
			Pagination: pageParams(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, items, page)
	}
}

func parseProductFilters(r *http.Request) (product.ListFilters, error) {
	q := r.URL.Query()
	var filters product.ListFilters

	if raw := strings.TrimSpace(q.Get("badge")); raw != "" {
		badge, err := enums.ParseProductBadge(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid badge")
		}
		filters.Badge = &badge
	}

	var err error
	if filters.MinPrice, err = validators.ParseQueryDecimal(r, "min_price"); err != nil {
		return filters, err
	}
	if filters.MaxPrice, err = validators.ParseQueryDecimal(r, "max_price"); err != nil {
		return filters, err
	}
	if filters.Rating, err = validators.ParseQueryDecimal(r, "rating"); err != nil {
		return filters, err
	}
	if filters.MinPrice != nil && filters.MaxPrice != nil && filters.MinPrice.GreaterThan(*filters.MaxPrice) {
		return filters, pkgerrors.New(pkgerrors.CodeValidation, "min_price cannot exceed max_price")
	}

	filters.Category = strings.TrimSpace(q.Get("category"))
	filters.Search = validators.SanitizeString(q.Get("search"), 200)

	ordering, err := product.ParseOrdering(q.Get("ordering"))
	if err != nil {
		return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ordering")
	}
	filters.Ordering = ordering
	return filters, nil
}

// ProductDetail marks the product as watchlisted when the caller is signed in.
func ProductDetail(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}

		productID, ok := uuidParam(w, r, logg, "productID")
		if !ok {
			return
		}

		var viewer *uuid.UUID
		if uid, ok := middleware.UserUUIDFromContext(r.Context()); ok {
			viewer = &uid
		}

		detail, err := svc.Detail(r.Context(), productID, viewer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func ProductCategories(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}
		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

func DeliveryFees(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}
		fees, err := svc.DeliveryFees(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, fees)
	}
}
