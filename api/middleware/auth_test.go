package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asookemart/asooke-backend/pkg/auth"
	"github.com/asookemart/asooke-backend/pkg/auth/session"
	"github.com/asookemart/asooke-backend/pkg/config"
	"github.com/asookemart/asooke-backend/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(context.Context, string) (bool, error) {
	return s.ok, s.err
}

func mintTestToken(t *testing.T, role enums.Role) (string, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	token, err := auth.MintAccessToken(testJWT, time.Now(), auth.AccessTokenPayload{
		UserID: userID,
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	require.NoError(t, err)
	return token, userID
}

func serve(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

func TestAuthRejectsMissingOrInvalidToken(t *testing.T) {
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(okHandler)
	assert.Equal(t, http.StatusUnauthorized, serve(handler, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(handler, "invalid").Code)
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	token, _ := mintTestToken(t, enums.RoleCustomer)
	assert.Equal(t, http.StatusUnauthorized, serve(Auth(testJWT, stubSessionVerifier{ok: false}, nil)(okHandler), token).Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(Auth(testJWT, stubSessionVerifier{err: errors.New("redis down")}, nil)(okHandler), token).Code)
}

func TestAuthSeedsContext(t *testing.T) {
	token, userID := mintTestToken(t, enums.RoleRider)

	var gotUser uuid.UUID
	var gotRole enums.Role
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserUUIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	require.Equal(t, http.StatusOK, serve(handler, token).Code)
	assert.Equal(t, userID, gotUser)
	assert.Equal(t, enums.RoleRider, gotRole)
}

func TestOptionalAuthTreatsBadTokensAsAnonymous(t *testing.T) {
	var authenticated bool
	handler := OptionalAuth(testJWT, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, authenticated = UserUUIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	require.Equal(t, http.StatusOK, serve(handler, "garbage").Code)
	assert.False(t, authenticated)

	token, _ := mintTestToken(t, enums.RoleCustomer)
	require.Equal(t, http.StatusOK, serve(handler, token).Code)
	assert.True(t, authenticated)
}

func TestRequireRole(t *testing.T) {
	adminOnly := RequireRole(nil, enums.RoleAdmin)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	adminOnly.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	req = req.WithContext(WithUser(req.Context(), uuid.NewString(), enums.RoleCustomer))
	resp = httptest.NewRecorder()
	adminOnly.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	req = req.WithContext(WithUser(req.Context(), uuid.NewString(), enums.RoleAdmin))
	resp = httptest.NewRecorder()
	adminOnly.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
}
