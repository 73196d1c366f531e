package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/foundationauth/internal/common"
	"github.com/dmitrijs2005/foundationauth/internal/dbx"
	"github.com/dmitrijs2005/foundationauth/internal/server/models"
	"github.com/google/uuid"
)

// queries holds the dialect-specific SQL text of one store.
type queries struct {
	insert              string
	selectByID          string
	selectByEmail       string
	selectByUsername    string
	selectByVerifyToken string
	update              string
	delete              string
}

// store is the database/sql implementation shared by both dialects. Only
// placeholders and the translation of unique violations differ.
type store struct {
	db       dbx.DBTX
	q        queries
	conflict func(error) error
}

func (s *store) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, s.q.insert,
		user.ID, user.Username, user.Email, user.PasswordHash, int(user.Role),
		user.CreatedAt, user.UpdatedAt, user.IsEmailVerified,
		user.VerificationToken, user.TokenExpiryAt)
	if err != nil {
		if mapped := s.conflict(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (s *store) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getOne(ctx, s.q.selectByID, id)
}

func (s *store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, s.q.selectByEmail, email)
}

func (s *store) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getOne(ctx, s.q.selectByUsername, username)
}

func (s *store) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	return s.getOne(ctx, s.q.selectByVerifyToken, token)
}

func (s *store) Update(ctx context.Context, user *models.User) error {
	res, err := s.db.ExecContext(ctx, s.q.update,
		user.Username, user.Email, user.PasswordHash, int(user.Role),
		user.UpdatedAt, user.IsEmailVerified, user.VerificationToken, user.TokenExpiryAt,
		user.ID)
	if err != nil {
		if mapped := s.conflict(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

func (s *store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q.delete, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

func (s *store) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	var role int

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &role,
		&user.CreatedAt, &user.UpdatedAt, &user.IsEmailVerified,
		&user.VerificationToken, &user.TokenExpiryAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Role = models.Role(role)
	return user, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
