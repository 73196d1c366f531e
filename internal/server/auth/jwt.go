// Package auth holds the authentication primitives: password hashing,
// email verification tokens and signed session tokens.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/foundationauth/internal/common"
	"github.com/dmitrijs2005/foundationauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrEmptySigningKey is returned when a session token service is built
// without a secret.
var ErrEmptySigningKey = errors.New("jwt signing key is empty")

// DefaultSessionTTL is the default lifetime of a session token.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Claims are the session token claims: the registered set plus the user's
// email, username and role name.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// UserID returns the subject, which is the user id.
func (c *Claims) UserID() string { return c.Subject }

// SessionTokens issues and validates HS256 session tokens. Validation is
// strict: no clock skew is tolerated on expiry.
type SessionTokens struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

func NewSessionTokens(secret []byte, issuer, audience string, ttl time.Duration) (*SessionTokens, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySigningKey
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionTokens{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
	}, nil
}

// Issue signs a token for user valid from now until now + TTL.
func (s *SessionTokens) Issue(user *models.User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role.String(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate verifies the signature and the iss, aud and exp claims as of now.
// The HMAC is checked before anything in the header or payload is decoded,
// so any altered byte reports ErrSignatureInvalid.
func (s *SessionTokens) Validate(tokenString string, now time.Time) (*Claims, error) {
	if err := s.verifySignature(tokenString); err != nil {
		return nil, err
	}

	claims := &Claims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, mapJWTError(err)
	}
	if !token.Valid {
		return nil, common.ErrSignatureInvalid
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", common.ErrTokenClaimsMismatch)
	}
	return claims, nil
}

func (s *SessionTokens) verifySignature(tokenString string) error {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return fmt.Errorf("%w: token contains %d segments", common.ErrTokenMalformed, len(parts))
	}

	sig, err := jwt.NewParser().DecodeSegment(parts[2])
	if err != nil {
		return fmt.Errorf("%w: signature segment: %v", common.ErrTokenMalformed, err)
	}

	if err := jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, s.secret); err != nil {
		return fmt.Errorf("%w: %v", common.ErrSignatureInvalid, err)
	}
	return nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", common.ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", common.ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return fmt.Errorf("%w: %v", common.ErrTokenClaimsMismatch, err)
	default:
		return fmt.Errorf("%w: %v", common.ErrTokenMalformed, err)
	}
}
