package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/asookemart/asooke-backend/api/middleware"
	"github.com/asookemart/asooke-backend/api/responses"
	"github.com/asookemart/asooke-backend/api/validators"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/logger"
	"github.com/asookemart/asooke-backend/pkg/pagination"
)

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}

// requireUser writes a 401 and reports false when the request carries no user.
func requireUser(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	uid, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return uuid.Nil, false
	}
	return uid, true
}

func pageParams(r *http.Request) pagination.Params {
	q := r.URL.Query()
	return pagination.FromQuery(q.Get("page"), q.Get("limit"))
}

func uuidParam(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) (uuid.UUID, bool) {
	id, err := validators.ParseUUIDParam(r, name)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, false
	}
	return id, true
}
