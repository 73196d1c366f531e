// Package common defines shared constants and sentinel errors used across
// client and server layers of FoundationAuth. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrEmailTaken    = errors.New("email address is already registered")
	ErrUsernameTaken = errors.New("username is already taken")

	// Service-level errors.
	ErrInternal           = errors.New("internal error")
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email address is not verified")
	ErrTransportFailure   = errors.New("email transport failure")

	// Verification token errors. All of them wrap ErrInvalidToken.
	ErrInvalidToken              = errors.New("invalid token")
	ErrVerificationTokenNotFound = wrapKind(ErrInvalidToken, "verification token not found")
	ErrAlreadyVerified           = wrapKind(ErrInvalidToken, "email address already verified")
	ErrVerificationTokenExpired  = wrapKind(ErrInvalidToken, "verification token expired")

	// Session token errors.
	ErrSignatureInvalid    = errors.New("token signature is invalid")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenMalformed      = errors.New("token is malformed")
	ErrTokenClaimsMismatch = errors.New("token claims do not match")
	ErrMissingToken        = errors.New("missing token")
	ErrPermissionDenied    = errors.New("permission denied")
)

// kindError is a sentinel that reports a parent kind through errors.Is.
type kindError struct {
	parent error
	msg    string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.parent }

func wrapKind(parent error, msg string) error {
	return &kindError{parent: parent, msg: msg}
}
