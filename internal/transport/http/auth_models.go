package http

import "time"

// ErrorResponse represents a generic error payload.
type ErrorResponse struct {
	Error string `json:"error" example:"invalid credentials"`
}

// AuthUser models the sanitized user representation returned by auth endpoints.
type AuthUser struct {
	ID        string    `json:"id" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	Email     string    `json:"email" example:"user@example.com"`
	IsAdmin   bool      `json:"is_admin" example:"false"`
	CreatedAt time.Time `json:"created_at" example:"2024-01-01T12:00:00Z"`
	UpdatedAt time.Time `json:"updated_at" example:"2024-01-02T09:30:00Z"`
}

// AuthTokenResponse is returned by endpoints that issue JWT tokens.
type AuthTokenResponse struct {
	Token     string   `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt string   `json:"expires_at" example:"2024-01-02T09:30:00Z"`
	User      AuthUser `json:"user"`
}

// AuthUserResponse wraps a user object.
type AuthUserResponse struct {
	User AuthUser `json:"user"`
}

// SuccessResponse denotes a simple success flag.
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// RegisterRequest carries email registration fields.
type RegisterRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"StrongPass!234"`
}

// LoginRequest carries email login fields.
type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"StrongPass!234"`
}

// ChangePasswordRequest captures the payload for password updates.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" example:"OldPass!2345"`
	NewPassword     string `json:"new_password" example:"NewPass!4567"`
}

// PasswordResetRequest captures the payload for requesting a reset link.
type PasswordResetRequest struct {
	Email string `json:"email" example:"user@example.com"`
}

// PasswordResetConfirmRequest captures the payload for confirming a reset.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token" example:"xL8o0Zz3p0Qq1WwEeRrTtYyUuIiOoPpAaSsDdFfGgH"`
	NewPassword string `json:"new_password" example:"NewPass!4567"`
}

// PasswordResetVerifyResponse reports whether a reset link is still usable.
type PasswordResetVerifyResponse struct {
	Valid     bool       `json:"valid" example:"true"`
	Reason    string     `json:"reason,omitempty" example:"expired"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ResetStatsResponse is returned by the admin stats endpoint.
type ResetStatsResponse struct {
	Active  int64 `json:"active" example:"3"`
	Used    int64 `json:"used" example:"12"`
	Expired int64 `json:"expired" example:"7"`
}
