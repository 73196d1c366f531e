package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/foundationauth/internal/common"
	"github.com/dmitrijs2005/foundationauth/internal/server/models"
)

// DefaultVerificationTTL is how long an email verification token stays valid.
const DefaultVerificationTTL = 24 * time.Hour

// verificationTokenBytes is the entropy of a token; it is hex-encoded to 64 chars.
const verificationTokenBytes = 32

// VerificationLookup finds the user that owns a pending verification token.
// It returns common.ErrNotFound when nobody does.
type VerificationLookup interface {
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
}

// VerificationTokens issues and checks one-time email verification tokens.
// It never writes: callers persist issued pairs and clear consumed ones.
type VerificationTokens struct {
	ttl time.Duration
}

func NewVerificationTokens(ttl time.Duration) *VerificationTokens {
	if ttl <= 0 {
		ttl = DefaultVerificationTTL
	}
	return &VerificationTokens{ttl: ttl}
}

// Issue returns a fresh random token and its expiry, now + TTL.
func (v *VerificationTokens) Issue(now time.Time) (string, time.Time, error) {
	token, err := common.MakeRandHexString(verificationTokenBytes)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate verification token: %w", err)
	}
	return token, now.Add(v.ttl), nil
}

// Consume resolves token to its owner and checks it can still be redeemed.
func (v *VerificationTokens) Consume(ctx context.Context, lookup VerificationLookup, token string, now time.Time) (*models.User, error) {
	if token == "" {
		return nil, common.ErrVerificationTokenNotFound
	}

	user, err := lookup.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrVerificationTokenNotFound
		}
		return nil, fmt.Errorf("lookup verification token: %w", err)
	}

	if user.IsEmailVerified {
		return nil, common.ErrAlreadyVerified
	}
	if user.TokenExpiryAt == nil || now.After(*user.TokenExpiryAt) {
		return nil, common.ErrVerificationTokenExpired
	}
	return user, nil
}
