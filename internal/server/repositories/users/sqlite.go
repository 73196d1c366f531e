package users

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/foundationauth/internal/common"
	"github.com/dmitrijs2005/foundationauth/internal/dbx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var sqliteQueries = queries{
	insert: `INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at,
		 is_email_verified, verification_token, token_expiry_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	selectByID:          `SELECT ` + userColumns + ` FROM users WHERE id = ?`,
	selectByEmail:       `SELECT ` + userColumns + ` FROM users WHERE email = ?`,
	selectByUsername:    `SELECT ` + userColumns + ` FROM users WHERE username = ?`,
	selectByVerifyToken: `SELECT ` + userColumns + ` FROM users WHERE verification_token = ?`,
	update: `UPDATE users SET username = ?, email = ?, password_hash = ?, role = ?,
		 updated_at = ?, is_email_verified = ?, verification_token = ?, token_expiry_at = ?
		 WHERE id = ?`,
	delete: `DELETE FROM users WHERE id = ?`,
}

// SQLiteRepository stores users in an embedded SQLite database
// (modernc.org/sqlite). Handy for local runs and tests.
type SQLiteRepository struct {
	*store
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{store: &store{db: db, q: sqliteQueries, conflict: sqliteConflict}}
}

// sqliteConflict reads the offending column from the driver message, e.g.
// "UNIQUE constraint failed: users.email".
func sqliteConflict(err error) error {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return nil
	}
	msg := sqlErr.Error()
	if sqlErr.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE && !strings.Contains(msg, "UNIQUE constraint failed") {
		return nil
	}
	switch {
	case strings.Contains(msg, "users.email"):
		return common.ErrEmailTaken
	case strings.Contains(msg, "users.username"):
		return common.ErrUsernameTaken
	default:
		return nil
	}
}
