// Package users persists user accounts. Uniqueness of email and username is
// enforced by the database; conflicts surface as common.ErrEmailTaken and
// common.ErrUsernameTaken.
package users

import (
	"context"

	"github.com/dmitrijs2005/foundationauth/internal/server/models"
)

type Repository interface {
	// Create inserts user, assigning an id if it has none.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	// Update overwrites every mutable column of the row with user.ID.
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}
