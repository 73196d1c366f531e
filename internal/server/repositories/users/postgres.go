package users

import (
	"errors"

	"github.com/dmitrijs2005/foundationauth/internal/common"
	"github.com/dmitrijs2005/foundationauth/internal/dbx"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// userColumns is the select list shared by both dialects; scan order matters.
const userColumns = `id, username, email, password_hash, role, created_at, updated_at,
		 is_email_verified, verification_token, token_expiry_at`

var pgQueries = queries{
	insert: `INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at,
		 is_email_verified, verification_token, token_expiry_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
	selectByID:          `SELECT ` + userColumns + ` FROM users WHERE id = $1`,
	selectByEmail:       `SELECT ` + userColumns + ` FROM users WHERE email = $1`,
	selectByUsername:    `SELECT ` + userColumns + ` FROM users WHERE username = $1`,
	selectByVerifyToken: `SELECT ` + userColumns + ` FROM users WHERE verification_token = $1`,
	update: `UPDATE users SET username = $1, email = $2, password_hash = $3, role = $4,
		 updated_at = $5, is_email_verified = $6, verification_token = $7, token_expiry_at = $8
		 WHERE id = $9`,
	delete: `DELETE FROM users WHERE id = $1`,
}

// PostgresRepository stores users in PostgreSQL through the pgx stdlib driver.
type PostgresRepository struct {
	*store
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{store: &store{db: db, q: pgQueries, conflict: pgConflict}}
}

// pgConflict maps a unique violation to the taken-field error by constraint
// name, or returns nil for anything else.
func pgConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case "users_email_key":
		return common.ErrEmailTaken
	case "users_username_key":
		return common.ErrUsernameTaken
	default:
		return nil
	}
}
