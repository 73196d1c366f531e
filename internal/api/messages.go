package api

import "time"

// User is the public view of an account.
type User struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	Role            string     `json:"role"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
	IsEmailVerified bool       `json:"is_email_verified"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	User *User `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

type VerifyEmailResponse struct {
	Message string `json:"message"`
}

type ResendVerificationRequest struct {
	Email string `json:"email"`
}

type ResendVerificationResponse struct {
	Message string `json:"message"`
}

type GetProfileRequest struct{}

type ProfileResponse struct {
	User *User `json:"user"`
}

// UpdateProfileRequest changes only the non-empty fields.
type UpdateProfileRequest struct {
	Username    string `json:"username,omitempty"`
	Email       string `json:"email,omitempty"`
	NewPassword string `json:"new_password,omitempty"`
}

type DeleteAccountRequest struct{}

type DeleteAccountResponse struct{}

type AdminPingRequest struct{}

type AdminPingResponse struct {
	Message string `json:"message"`
}
