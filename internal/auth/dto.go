package auth

import (
	"github.com/asookemart/asooke-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates a customer account. Password is optional; accounts
// without one sign in through magic links only.
type RegisterRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"required,max=100"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password,omitempty" validate:"omitempty,min=8"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,ngphone"`
}

// MagicLinkRequest doubles as sign-up for unknown emails, which is why the names are accepted.
type MagicLinkRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	FirstName string  `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  string  `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,ngphone"`
}

type ResendRequest struct {
	Email   string `json:"email" validate:"required,email"`
	IsLogin bool   `json:"is_login"`
}

type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// MessageResult is the acknowledgement returned by the email-sending endpoints.
type MessageResult struct {
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
	// Created marks a magic-link request that registered a new account.
	Created bool `json:"-"`
}

// Session is a freshly minted access/refresh pair.
type Session struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
	Group        string         `json:"group"`
}
