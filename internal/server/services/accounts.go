package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/foundationauth/internal/common"
	"github.com/dmitrijs2005/foundationauth/internal/dbx"
	"github.com/dmitrijs2005/foundationauth/internal/logging"
	"github.com/dmitrijs2005/foundationauth/internal/server/auth"
	"github.com/dmitrijs2005/foundationauth/internal/server/config"
	"github.com/dmitrijs2005/foundationauth/internal/server/mail"
	"github.com/dmitrijs2005/foundationauth/internal/server/models"
	"github.com/dmitrijs2005/foundationauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/foundationauth/internal/timex"
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// UpdateProfileInput lists the fields to change; empty fields are left as is.
type UpdateProfileInput struct {
	Username    string
	Email       string
	NewPassword string
}

// LoginResult is a freshly issued session.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.UserView
}

// AccountService drives the account lifecycle:
// registered (pending verification) -> verified -> logged in.
//
// Uniqueness of email and username is guaranteed by the store. The lookups
// done here only produce an early, friendlier error.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	verify      *auth.VerificationTokens
	sessions    *auth.SessionTokens
	mailer      mail.Dispatcher
	linkBase    *url.URL
	mailTimeout time.Duration
	now         timex.Clock
	log         logging.Logger

	// dummyHash is checked on logins for unknown emails.
	dummyHash string

	// background tracks fire-and-forget email dispatches.
	background sync.WaitGroup
}

// Option customises an AccountService.
type Option func(*AccountService)

// WithClock replaces the wall clock.
func WithClock(c timex.Clock) Option {
	return func(s *AccountService) { s.now = c }
}

// WithHasher replaces the configured password hasher.
func WithHasher(h auth.PasswordHasher) Option {
	return func(s *AccountService) { s.hasher = h }
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	mailer mail.Dispatcher, log logging.Logger, opts ...Option) (*AccountService, error) {

	sessions, err := auth.NewSessionTokens([]byte(cfg.SecretKey), cfg.JWTIssuer, cfg.JWTAudience, cfg.SessionTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	linkBase, err := url.Parse(cfg.VerificationLinkBase)
	if err != nil {
		return nil, fmt.Errorf("parse verification link base: %w", err)
	}

	s := &AccountService{
		db:          db,
		repomanager: m,
		verify:      auth.NewVerificationTokens(cfg.VerificationTokenValidityDuration),
		sessions:    sessions,
		mailer:      mailer,
		linkBase:    linkBase,
		mailTimeout: cfg.MailSendTimeout,
		now:         timex.UTCNow,
		log:         log.With("module", "accounts"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.hasher == nil {
		s.hasher, err = auth.NewPasswordHasher(cfg.PasswordHashAlgorithm, cfg.BcryptCost)
		if err != nil {
			return nil, err
		}
	}
	if s.mailTimeout <= 0 {
		s.mailTimeout = 15 * time.Second
	}

	dummy, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	s.dummyHash, err = s.hasher.Hash(dummy)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return s, nil
}

// Register creates a pending account and sends its verification email.
//
// The email is awaited: if delivery fails the error is returned although the
// account has already been stored. The user can ask for a new email later.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.UserView, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := validateRegister(in, auth.MaxPasswordLength(s.hasher)); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	if err := s.ensureEmailFree(ctx, repo.GetByEmail, in.Email, ""); err != nil {
		return nil, err
	}
	if err := s.ensureUsernameFree(ctx, repo.GetByUsername, in.Username, ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	token, expiry, err := s.verify.Issue(now)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		CreatedAt:    now,
	}
	user.SetVerificationToken(token, expiry)

	user, err = repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	s.log.Info(ctx, "user registered", "user_id", user.ID)

	if err := s.mailer.SendVerification(ctx, user, s.verificationLink(token)); err != nil {
		s.log.Error(ctx, "verification email failed", "user_id", user.ID, "error", err)
		return nil, err
	}

	return user.View(), nil
}

// Login checks credentials and issues a session token.
//
// Unknown email and wrong password yield the same ErrInvalidCredentials.
// An unverified account gets a new verification token, mailed in the
// background, and the call fails with ErrEmailNotVerified.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error fetching user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	if !user.IsEmailVerified {
		token, err := s.reissueVerification(ctx, repo.Update, user)
		if err != nil {
			return nil, err
		}
		s.dispatchInBackground(ctx, user, s.verificationLink(token))
		return nil, common.ErrEmailNotVerified
	}

	signed, expiresAt, err := s.sessions.Issue(user, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{Token: signed, ExpiresAt: expiresAt, User: user.View()}, nil
}

// VerifyEmail redeems a verification token. A token can be redeemed once.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		now := s.now()

		user, err := s.verify.Consume(ctx, repo, token, now)
		if err != nil {
			return err
		}

		user.MarkVerified()
		user.UpdatedAt = &now
		if err := repo.Update(ctx, user); err != nil {
			return fmt.Errorf("error updating user: %w", err)
		}

		s.log.Info(ctx, "email verified", "user_id", user.ID)
		return nil
	})
}

// ResendVerification issues a new token for a pending account and mails it.
// Unknown and already verified addresses succeed silently.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("error fetching user: %w", err)
	}
	if user.IsEmailVerified {
		return nil
	}

	token, err := s.reissueVerification(ctx, repo.Update, user)
	if err != nil {
		return err
	}
	return s.mailer.SendVerification(ctx, user, s.verificationLink(token))
}

func (s *AccountService) GetProfile(ctx context.Context, id string) (*models.UserView, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.View(), nil
}

// UpdateProfile applies the non-empty fields of in. UpdatedAt always comes
// from the service clock.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (*models.UserView, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := validateUpdate(in, auth.MaxPasswordLength(s.hasher)); err != nil {
		return nil, err
	}

	var newHash string
	if in.NewPassword != "" {
		var err error
		if newHash, err = s.hasher.Hash(in.NewPassword); err != nil {
			return nil, err
		}
	}

	var view *models.UserView
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		changed := false
		if in.Email != "" && in.Email != user.Email {
			if err := s.ensureEmailFree(ctx, repo.GetByEmail, in.Email, user.ID); err != nil {
				return err
			}
			user.Email = in.Email
			changed = true
		}
		if in.Username != "" && in.Username != user.Username {
			if err := s.ensureUsernameFree(ctx, repo.GetByUsername, in.Username, user.ID); err != nil {
				return err
			}
			user.Username = in.Username
			changed = true
		}
		if newHash != "" {
			user.PasswordHash = newHash
			changed = true
		}

		if changed {
			now := s.now()
			user.UpdatedAt = &now
			if err := repo.Update(ctx, user); err != nil {
				return err
			}
			s.log.Info(ctx, "profile updated", "user_id", user.ID)
		}

		view = user.View()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// DeleteAccount removes the account permanently.
func (s *AccountService) DeleteAccount(ctx context.Context, id string) error {
	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info(ctx, "user deleted", "user_id", id)
	return nil
}

// Authenticate validates a session token and returns its claims.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	return s.sessions.Validate(token, s.now())
}

// Wait blocks until background email dispatches have finished.
func (s *AccountService) Wait() {
	s.background.Wait()
}

func (s *AccountService) reissueVerification(ctx context.Context, update func(context.Context, *models.User) error, user *models.User) (string, error) {
	now := s.now()
	token, expiry, err := s.verify.Issue(now)
	if err != nil {
		return "", err
	}
	user.SetVerificationToken(token, expiry)
	user.UpdatedAt = &now

	if err := update(ctx, user); err != nil {
		return "", fmt.Errorf("error updating user: %w", err)
	}
	return token, nil
}

// dispatchInBackground sends the verification email without holding up the
// caller. Failures are logged only.
func (s *AccountService) dispatchInBackground(ctx context.Context, user *models.User, link string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.mailTimeout)
	recipient := *user

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer cancel()

		if err := s.mailer.SendVerification(ctx, &recipient, link); err != nil {
			s.log.Warn(ctx, "background verification email failed", "user_id", recipient.ID, "error", err)
		}
	}()
}

func (s *AccountService) verificationLink(token string) string {
	u := *s.linkBase
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

type lookupFn func(context.Context, string) (*models.User, error)

func (s *AccountService) ensureEmailFree(ctx context.Context, get lookupFn, email, selfID string) error {
	return ensureFree(ctx, get, email, selfID, common.ErrEmailTaken)
}

func (s *AccountService) ensureUsernameFree(ctx context.Context, get lookupFn, username, selfID string) error {
	return ensureFree(ctx, get, username, selfID, common.ErrUsernameTaken)
}

func ensureFree(ctx context.Context, get lookupFn, value, selfID string, taken error) error {
	existing, err := get(ctx, value)
	switch {
	case errors.Is(err, common.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("error fetching user: %w", err)
	case existing.ID != selfID:
		return taken
	default:
		return nil
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
