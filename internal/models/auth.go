package models

import "time"

// LoginRequest accepts an email or a bare username as identifier.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required,min=6"`
}

type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"required,min=3,max=60"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"omitempty,eqfield=Password"`
}

// SessionResponse is returned by every call that establishes a session. Token
// is the bearer token for the protected routes.
type SessionResponse struct {
	Authenticated bool      `json:"authenticated"`
	User          *User     `json:"user,omitempty"`
	Token         string    `json:"token,omitempty"`
	ExpiresAt     time.Time `json:"expiresAt,omitzero"`
}
