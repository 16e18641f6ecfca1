package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the stable, client-facing identifier of an error class.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	// Order and delivery business rules.
	CodeSequenceViolation Code = "SEQUENCE_VIOLATION"
	CodeTotalMismatch     Code = "TOTAL_MISMATCH"
	CodeNotInTransit      Code = "NOT_IN_TRANSIT"
	CodeOTPExpired        Code = "OTP_EXPIRED"
	CodeOTPMismatch       Code = "OTP_MISMATCH"
	CodeInvalidRating     Code = "INVALID_RATING"

	// Payment provider outcomes.
	CodeInvalidReference    Code = "INVALID_REFERENCE"
	CodeProviderUnavailable Code = "PROVIDER_UNAVAILABLE"
	CodeCheckoutFailed      Code = "CHECKOUT_FAILED"
)

// Metadata is how a Code surfaces over HTTP.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

const (
	noDetails   = false
	withDetails = true
)

func meta(status int, public string, details bool) Metadata {
	return Metadata{
		HTTPStatus:     status,
		Retryable:      status >= http.StatusInternalServerError,
		PublicMessage:  public,
		DetailsAllowed: details,
	}
}

// Retryable follows the status class: only 5xx responses invite a retry.
var metadataByCode = map[Code]Metadata{
	CodeValidation:   meta(http.StatusBadRequest, "validation failed", withDetails),
	CodeUnauthorized: meta(http.StatusUnauthorized, "authentication required", noDetails),
	CodeForbidden:    meta(http.StatusForbidden, "access denied", noDetails),
	CodeNotFound:     meta(http.StatusNotFound, "resource not found", noDetails),
	CodeConflict:     meta(http.StatusConflict, "conflict detected", noDetails),
	CodeIdempotency:  meta(http.StatusConflict, "idempotency key reused", withDetails),
	CodeRateLimit:    meta(http.StatusTooManyRequests, "rate limit exceeded", noDetails),
	CodeInternal:     meta(http.StatusInternalServerError, "internal server error", noDetails),
	CodeDependency:   meta(http.StatusServiceUnavailable, "dependency unavailable", withDetails),

	CodeSequenceViolation: meta(http.StatusBadRequest, "order status out of sequence", withDetails),
	CodeTotalMismatch:     meta(http.StatusBadRequest, "total mismatch", withDetails),
	CodeNotInTransit:      meta(http.StatusBadRequest, "order is not in transit", noDetails),
	CodeOTPExpired:        meta(http.StatusBadRequest, "otp expired", noDetails),
	CodeOTPMismatch:       meta(http.StatusBadRequest, "invalid otp", noDetails),
	CodeInvalidRating:     meta(http.StatusBadRequest, "stars must be between 1 and 5", withDetails),

	CodeInvalidReference:    meta(http.StatusBadRequest, "payment could not be verified", noDetails),
	CodeProviderUnavailable: meta(http.StatusBadGateway, "payment initialization failed", noDetails),
	CodeCheckoutFailed:      meta(http.StatusInternalServerError, "order could not be completed", noDetails),
}

// MetadataFor falls back to INTERNAL_ERROR for unknown codes.
func MetadataFor(code Code) Metadata {
	if m, ok := metadataByCode[code]; ok {
		return m
	}
	return metadataByCode[CodeInternal]
}

// Error carries a Code plus an optional wrapped cause and public details.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// IsCode reports whether any typed error in the chain carries code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
