package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient("sk_test_123", WithBaseURL("http://paystack.test"), WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)
	return client
}

func TestInitializeSendsKoboAndMetadata(t *testing.T) {
	var captured map[string]any
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "http://paystack.test/transaction/initialize", req.URL.String())
		assert.Equal(t, "Bearer sk_test_123", req.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&captured))
		return jsonResponse(http.StatusOK, `{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"AO-ref"}}`), nil
	})

	res, err := client.Initialize(context.Background(), InitializeRequest{
		Email:     "ada@example.com",
		Amount:    500000,
		Reference: "AO-ref",
		Metadata:  map[string]string{"cart_id": "c-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc", res.AuthorizationURL)
	assert.EqualValues(t, 500000, captured["amount"])
	assert.Equal(t, "c-1", captured["metadata"].(map[string]any)["cart_id"])
}

func TestInitializeStatusFalseIsProviderUnavailable(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"status":false,"message":"Invalid key"}`), nil
	})
	_, err := client.Initialize(context.Background(), InitializeRequest{Email: "a@b.c", Amount: 100, Reference: "r"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProviderUnavailable))
}

func TestInitializeTransportError(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection reset")
	})
	_, err := client.Initialize(context.Background(), InitializeRequest{Email: "a@b.c", Amount: 100, Reference: "r"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProviderUnavailable))
}

func TestVerifyDecodesTransaction(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/transaction/verify/AO-ref", req.URL.Path)
		return jsonResponse(http.StatusOK, `{"status":true,"message":"Verification successful","data":{
			"id":1,"status":"success","reference":"AO-ref","amount":500000,"channel":"card",
			"paid_at":"2026-03-01T10:00:00.000Z",
			"metadata":{"cart_id":"c-1","user_id":"u-1"},
			"authorization":{"last4":"4081","exp_month":"1","exp_year":"2030","card_type":"visa","channel":"card"}}}`), nil
	})

	tx, err := client.Verify(context.Background(), "AO-ref")
	require.NoError(t, err)
	assert.True(t, tx.Succeeded())
	assert.Equal(t, "01/30", tx.Authorization.Expiry())
	require.NotNil(t, tx.PaidAt)

	var meta struct {
		CartID string `json:"cart_id"`
	}
	require.NoError(t, tx.DecodeMetadata(&meta))
	assert.Equal(t, "c-1", meta.CartID)
}

func TestVerifyUnknownReference(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, `{"status":false,"message":"Transaction reference not found"}`), nil
	})
	_, err := client.Verify(context.Background(), "AO-missing")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidReference))
}

func TestDecodeMetadataAcceptsEncodedString(t *testing.T) {
	tx := Transaction{Metadata: json.RawMessage(`"{\"cart_id\":\"c-9\"}"`)}
	var meta struct {
		CartID string `json:"cart_id"`
	}
	require.NoError(t, tx.DecodeMetadata(&meta))
	assert.Equal(t, "c-9", meta.CartID)

	assert.Error(t, Transaction{Metadata: json.RawMessage(`null`)}.DecodeMetadata(&meta))
}

func TestVerifySignature(t *testing.T) {
	client := newTestClient(t, nil)
	body := []byte(`{"event":"charge.success"}`)
	mac := hmac.New(sha512.New, []byte("sk_test_123"))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, client.VerifySignature(body, sig))
	assert.False(t, client.VerifySignature(body, "deadbeef"))
	assert.False(t, client.VerifySignature([]byte(`{}`), sig))
}
