package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/logger"
	"github.com/asookemart/asooke-backend/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	require.Equal(t, http.StatusOK, w.Code)
	var body types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "world", body.Data.(map[string]any)["hello"])
}

func TestWriteErrorSurfacesClientMessage(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeTotalMismatch, "Total mismatch. Expected ₦5000.00, got ₦4000.00").
		WithDetails(map[string]string{"expected": "5000.00"})
	WriteError(context.Background(), nil, w, err)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "TOTAL_MISMATCH", body.Error.Code)
	assert.Equal(t, "Total mismatch. Expected ₦5000.00, got ₦4000.00", body.Error.Message)
	assert.NotNil(t, body.Error.Details)
}

func TestWriteErrorHidesServerMessage(t *testing.T) {
	w := httptest.NewRecorder()
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})

	err := pkgerrors.Wrap(pkgerrors.CodeCheckoutFailed, errors.New("insert order_items: disk full"), "persist order")
	WriteError(context.Background(), logg, w, err)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "CHECKOUT_FAILED", body.Error.Code)
	assert.NotContains(t, body.Error.Message, "disk full")
	assert.Contains(t, buf.String(), "disk full")
}

func TestWriteErrorDefaultsToInternalForUntypedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, string(pkgerrors.CodeInternal), body.Error.Code)
	assert.Nil(t, body.Error.Details)
}

func TestWritePage(t *testing.T) {
	w := httptest.NewRecorder()
	WritePage(w, []int{1, 2}, types.Page{Page: 1, Limit: 2, Total: 3, HasNext: true})

	var body types.PageEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.True(t, body.Page.HasNext)
}
