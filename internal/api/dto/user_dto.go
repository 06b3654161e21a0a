package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RegisterRequest payload for requester self-registration.
type RegisterRequest struct {
	Username string  `json:"username"`
	FullName string  `json:"full_name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Agency   *string `json:"agency"`
}

// CreateStaffRequest payload for admin-provisioned accounts.
type CreateStaffRequest struct {
	Username       string      `json:"username"`
	FullName       string      `json:"full_name"`
	Email          string      `json:"email"`
	Password       string      `json:"password"`
	Role           domain.Role `json:"role"`
	Agency         *string     `json:"agency"`
	Specialization *string     `json:"specialization"`
}

// LoginRequest payload; identifier is a username or an email.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// LoginResponse payload.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse payload.
type UserResponse struct {
	ID                 int64       `json:"id"`
	Username           string      `json:"username"`
	FullName           string      `json:"full_name"`
	Email              string      `json:"email"`
	Role               domain.Role `json:"role"`
	Agency             *string     `json:"agency,omitempty"`
	Specialization     *string     `json:"specialization,omitempty"`
	MustChangePassword bool        `json:"must_change_password"`
	CreatedAt          time.Time   `json:"created_at"`
}

// NewUserResponse maps a domain user, omitting credentials.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Username:           u.Username,
		FullName:           u.FullName,
		Email:              u.Email,
		Role:               u.Role,
		Agency:             u.Agency,
		Specialization:     u.Specialization,
		MustChangePassword: u.MustChangePassword,
		CreatedAt:          u.CreatedAt,
	}
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// PasswordResetRequest payload for initiating reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload for confirming reset.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}
