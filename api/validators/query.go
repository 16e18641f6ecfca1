package validators

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
)

func ParseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, name)))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+name).WithDetails(map[string]any{"field": name})
	}
	return id, nil
}

// ParseQueryDecimal returns nil when the parameter is absent. Negative
// values are rejected since every numeric filter is a price or a rating.
func ParseQueryDecimal(r *http.Request, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || value.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, key+" must be a non-negative number").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

// SanitizeString trims input and cuts it to at most maxRunes characters
// without splitting a multi-byte rune (Yoruba names carry diacritics).
func SanitizeString(input string, maxRunes int) string {
	s := strings.TrimSpace(input)
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	i, n := 0, 0
	for i = range s {
		if n == maxRunes {
			break
		}
		n++
	}
	return strings.TrimSpace(s[:i])
}
