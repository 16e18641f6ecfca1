package users

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/asookemart/asooke-backend/pkg/db/models"
	"github.com/asookemart/asooke-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       *string    `json:"phone,omitempty"`
	Role        enums.Role `json:"role"`
	Group       string     `json:"group"`
	RiderNumber *string    `json:"rider_id,omitempty"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash *string
	FirstName    string
	LastName     string
	Phone        *string
	Role         enums.Role
	IsActive     bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		Role:        u.Role,
		Group:       u.Role.Group(),
		RiderNumber: u.RiderNumber,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// ToModel normalises the email and capitalises both names.
func (d CreateUserDTO) ToModel() *models.User {
	role := d.Role
	if role == "" {
		role = enums.RoleCustomer
	}
	return &models.User{
		ID:           uuid.New(),
		Email:        NormalizeEmail(d.Email),
		PasswordHash: d.PasswordHash,
		FirstName:    Capitalize(d.FirstName),
		LastName:     Capitalize(d.LastName),
		Phone:        d.Phone,
		Role:         role,
		IsActive:     d.IsActive,
	}
}

// NormalizeEmail is the canonical login-name form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Capitalize upper-cases the first letter and lower-cases the rest: "aDA" -> "Ada".
func Capitalize(name string) string {
	runes := []rune(strings.ToLower(strings.TrimSpace(name)))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
