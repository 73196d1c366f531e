// Package models defines server-side data models persisted in the database.
package models

import (
	"fmt"
	"time"
)

// Role is the authorization role carried by a user and its session token.
type Role int

const (
	RoleUser Role = iota
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAdmin:
		return "Admin"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// ParseRole maps a symbolic role name back to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "User":
		return RoleUser, nil
	case "Admin":
		return RoleAdmin, nil
	default:
		return RoleUser, fmt.Errorf("unknown role %q", s)
	}
}

// User is the persisted account record.
//
// VerificationToken and TokenExpiryAt are set and cleared together, and a
// verified user never carries a token.
type User struct {
	ID                string     `db:"id"`
	Username          string     `db:"username"`
	Email             string     `db:"email"`
	PasswordHash      string     `db:"password_hash"`
	Role              Role       `db:"role"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         *time.Time `db:"updated_at"`
	IsEmailVerified   bool       `db:"is_email_verified"`
	VerificationToken *string    `db:"verification_token"`
	TokenExpiryAt     *time.Time `db:"token_expiry_at"`
}

// SetVerificationToken stores a pending token pair.
func (u *User) SetVerificationToken(token string, expiry time.Time) {
	u.VerificationToken = &token
	u.TokenExpiryAt = &expiry
}

// MarkVerified clears the token pair and flags the email as verified.
func (u *User) MarkVerified() {
	u.IsEmailVerified = true
	u.VerificationToken = nil
	u.TokenExpiryAt = nil
}

// UserView is the public projection of a User. It never carries the password
// hash or the verification token pair.
type UserView struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	Role            string     `json:"role"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
	IsEmailVerified bool       `json:"is_email_verified"`
}

// View returns the public projection of u.
func (u *User) View() *UserView {
	return &UserView{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Role:            u.Role.String(),
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
		IsEmailVerified: u.IsEmailVerified,
	}
}
