// Package paystack is a thin client for the Paystack transaction API.
package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.paystack.co"
	responseBodyReadLimit int64 = 1024

	// StatusSuccess is the transaction status Paystack reports for a captured charge.
	StatusSuccess = "success"
	// EventChargeSuccess is the webhook event emitted after a successful charge.
	EventChargeSuccess = "charge.success"
	// SignatureHeader carries the HMAC-SHA512 of the webhook body.
	SignatureHeader = "x-paystack-signature"
)

var errSecretKeyRequired = errors.New("paystack secret key is required")

// Client wraps the Paystack REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL points the client at another API origin.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 && c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a client authenticated with the secret key.
func NewClient(secretKey string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(secretKey)
	if trimmed == "" {
		return nil, errSecretKeyRequired
	}
	client := &Client{
		secretKey:  trimmed,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// InitializeRequest opens a hosted checkout session. Amount is in kobo.
type InitializeRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url,omitempty"`
	Metadata    any    `json:"metadata,omitempty"`
}

// InitializeResult is the hosted page the buyer is redirected to.
type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Authorization describes the instrument used for a charge.
type Authorization struct {
	Last4    string `json:"last4"`
	ExpMonth string `json:"exp_month"`
	ExpYear  string `json:"exp_year"`
	CardType string `json:"card_type"`
	Channel  string `json:"channel"`
	Bank     string `json:"bank"`
}

// Expiry renders the card expiry as MM/YY, or empty when unknown.
func (a Authorization) Expiry() string {
	if a.ExpMonth == "" || a.ExpYear == "" {
		return ""
	}
	month, year := a.ExpMonth, a.ExpYear
	if len(month) == 1 {
		month = "0" + month
	}
	if len(year) == 4 {
		year = year[2:]
	}
	return month + "/" + year
}

// Transaction is the verified state of a payment.
type Transaction struct {
	ID            int64           `json:"id"`
	Status        string          `json:"status"`
	Reference     string          `json:"reference"`
	Amount        int64           `json:"amount"`
	Currency      string          `json:"currency"`
	Channel       string          `json:"channel"`
	PaidAt        *time.Time      `json:"paid_at"`
	Metadata      json.RawMessage `json:"metadata"`
	Authorization Authorization   `json:"authorization"`
	Customer      struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// Succeeded reports whether the charge was captured.
func (t Transaction) Succeeded() bool {
	return t.Status == StatusSuccess
}

// DecodeMetadata unmarshals the metadata object attached at initialize time.
// Paystack sometimes echoes metadata back as a JSON encoded string.
func (t Transaction) DecodeMetadata(dst any) error {
	raw := bytes.TrimSpace(t.Metadata)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte(`""`)) {
		return errors.New("transaction metadata missing")
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return fmt.Errorf("decode metadata string: %w", err)
		}
		raw = []byte(inner)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}
	return nil
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Initialize creates a transaction and returns its authorization URL.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeProviderUnavailable, "paystack client not configured")
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Reference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and reference are required")
	}
	if req.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProviderUnavailable, err, "marshal initialize request")
	}

	var out envelope[InitializeResult]
	if err := c.do(ctx, http.MethodPost, "transaction/initialize", bytes.NewReader(payload), &out); err != nil {
		return nil, err
	}
	if !out.Status || out.Data.AuthorizationURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeProviderUnavailable, fmt.Sprintf("initialize rejected: %s", out.Message))
	}
	return &out.Data, nil
}

// Verify fetches the authoritative state of a transaction by reference.
func (c *Client) Verify(ctx context.Context, reference string) (*Transaction, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeProviderUnavailable, "paystack client not configured")
	}
	trimmed := strings.TrimSpace(reference)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}

	var out envelope[Transaction]
	if err := c.do(ctx, http.MethodGet, "transaction/verify/"+url.PathEscape(trimmed), nil, &out); err != nil {
		return nil, err
	}
	if !out.Status {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidReference, fmt.Sprintf("verify rejected: %s", out.Message))
	}
	return &out.Data, nil
}

// VerifySignature checks a webhook body against its x-paystack-signature header.
func (c *Client) VerifySignature(body []byte, signature string) bool {
	if c == nil || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

// Event is the webhook envelope; Data carries a Transaction for charge events.
type Event struct {
	Event string      `json:"event"`
	Data  Transaction `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	endpoint := strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeProviderUnavailable, err, "build paystack request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeProviderUnavailable, err, "execute paystack request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		// Paystack answers unknown references with 400/404 and status=false.
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInvalidReference, err, "decode paystack error")
		}
		return nil
	case resp.StatusCode >= http.StatusMultipleChoices:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeProviderUnavailable, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "paystack request failed")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeProviderUnavailable, err, "decode paystack response")
	}
	return nil
}
