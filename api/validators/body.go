package validators

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
)

// MaxBodyBytes caps JSON request bodies. Product imports are the largest.
const MaxBodyBytes = 2 << 20

// Nigerian mobile numbers, local (080...) or international (+23480...).
var ngPhone = regexp.MustCompile(`^(?:\+234|0)[789][01]\d{8}$`)

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" && name != "-" {
			return name
		}
		return f.Name
	})
	if err := v.RegisterValidation("ngphone", func(fl validator.FieldLevel) bool {
		return IsNigerianPhone(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}()

func IsNigerianPhone(value string) bool {
	return ngPhone.MatchString(strings.TrimSpace(value))
}

// DecodeJSONBody reads exactly one JSON object into dest, rejecting unknown
// fields, then applies the struct's validate tags.
func DecodeJSONBody(r *http.Request, dest any) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	defer func() { _, _ = io.Copy(io.Discard, body) }()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return decodeError(err)
	}
	if dec.More() {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body must hold a single JSON value")
	}

	var fieldErrs validator.ValidationErrors
	switch err := validate.Struct(dest); {
	case err == nil:
		return nil
	case errors.As(err, &fieldErrs):
		details := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			details[fe.Field()] = describe(fe)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
}

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body too large").
			WithDetails(map[string]any{"limit_bytes": tooLarge.Limit})
	}
	if errors.Is(err, io.EOF) {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body is empty")
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").
		WithDetails(map[string]any{"error": err.Error()})
}

var fixedMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email",
	"ngphone":  "must be a Nigerian phone number",
	"url":      "must be a valid URL",
	"uuid":     "must be a UUID",
}

var boundMessages = map[string]string{
	"min":   "must be at least ",
	"gte":   "must be at least ",
	"max":   "must be at most ",
	"lte":   "must be at most ",
	"len":   "must have length ",
	"oneof": "must be one of ",
}

func describe(fe validator.FieldError) string {
	if msg, ok := fixedMessages[fe.Tag()]; ok {
		return msg
	}
	if prefix, ok := boundMessages[fe.Tag()]; ok {
		return prefix + fe.Param()
	}
	return "is invalid"
}
