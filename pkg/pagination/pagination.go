package pagination

import (
	"strconv"
	"strings"

	"github.com/asookemart/asooke-backend/pkg/types"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 12
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds page-number pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// FromQuery reads page and limit, ignoring malformed values.
func FromQuery(page, limit string) Params {
	p, _ := strconv.Atoi(strings.TrimSpace(page))
	l, _ := strconv.Atoi(strings.TrimSpace(limit))
	return Params{Page: p, Limit: l}.Normalize()
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize clamps page to >= 1 and the limit into range.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	p.Limit = NormalizeLimit(p.Limit)
	return p
}

// Offset is the number of rows to skip for this page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Describe builds the response cursor once the total row count is known.
func (p Params) Describe(total int64) types.Page {
	n := p.Normalize()
	return types.Page{
		Page:    n.Page,
		Limit:   n.Limit,
		Total:   total,
		HasNext: int64(n.Page*n.Limit) < total,
	}
}
