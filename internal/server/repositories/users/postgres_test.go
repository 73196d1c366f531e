package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/foundationauth/internal/common"
	"github.com/dmitrijs2005/foundationauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var (
	created = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	columns = []string{"id", "username", "email", "password_hash", "role", "created_at", "updated_at",
		"is_email_verified", "verification_token", "token_expiry_at"}
)

const (
	insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*username,\s*email,\s*password_hash,\s*role,\s*created_at,\s*updated_at,\s*is_email_verified,\s*verification_token,\s*token_expiry_at\)\s*VALUES\s*\(\$1,.*\$10\)$`
	updateQ = `(?s)^UPDATE\s+users\s+SET\s+username\s*=\s*\$1,.*WHERE\s+id\s*=\s*\$9$`
	deleteQ = `^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
)

func selectQ(column string) string {
	return `(?s)^SELECT\s+id,\s*username,.*token_expiry_at\s+FROM\s+users\s+WHERE\s+` + column + `\s*=\s*\$1$`
}

func pendingUser() *models.User {
	u := &models.User{
		ID:           "u-1",
		Username:     "alice",
		Email:        "alice@x.com",
		PasswordHash: "$argon2id$hash",
		Role:         models.RoleUser,
		CreatedAt:    created,
	}
	u.SetVerificationToken("tok", created.Add(24*time.Hour))
	return u
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	u := pendingUser()
	mock.ExpectExec(insertQ).
		WithArgs("u-1", "alice", "alice@x.com", "$argon2id$hash", 0, created, nil, false, "tok", created.Add(24*time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_AssignsID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	u := pendingUser()
	u.ID = ""
	mock.ExpectExec(insertQ).WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Len(t, got.ID, 36)
}

func TestCreate_UniqueViolations(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{"users_email_key", common.ErrEmailTaken},
		{"users_username_key", common.ErrUsernameTaken},
	}
	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectExec(insertQ).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			_, err := repo.Create(context.Background(), pendingUser())
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), pendingUser())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}

	mock.ExpectExec(insertQ).WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_verification_token_key"})
	_, err = repo.Create(context.Background(), pendingUser())
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrEmailTaken))
	assert.False(t, errors.Is(err, common.ErrUsernameTaken))
}

func TestGetters_Found(t *testing.T) {
	expiry := created.Add(24 * time.Hour)

	tests := []struct {
		column string
		arg    string
		call   func(*PostgresRepository) (*models.User, error)
	}{
		{"id", "u-1", func(r *PostgresRepository) (*models.User, error) { return r.GetByID(context.Background(), "u-1") }},
		{"email", "alice@x.com", func(r *PostgresRepository) (*models.User, error) {
			return r.GetByEmail(context.Background(), "alice@x.com")
		}},
		{"username", "alice", func(r *PostgresRepository) (*models.User, error) {
			return r.GetByUsername(context.Background(), "alice")
		}},
		{"verification_token", "tok", func(r *PostgresRepository) (*models.User, error) {
			return r.GetByVerificationToken(context.Background(), "tok")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			rows := sqlmock.NewRows(columns).
				AddRow("u-1", "alice", "alice@x.com", "$argon2id$hash", 1, created, nil, false, "tok", expiry)
			mock.ExpectQuery(selectQ(tt.column)).WithArgs(tt.arg).WillReturnRows(rows)

			got, err := tt.call(repo)
			require.NoError(t, err)
			assert.Equal(t, "u-1", got.ID)
			assert.Equal(t, models.RoleAdmin, got.Role)
			assert.Nil(t, got.UpdatedAt)
			require.NotNil(t, got.VerificationToken)
			assert.Equal(t, "tok", *got.VerificationToken)
			require.NotNil(t, got.TokenExpiryAt)
			assert.True(t, expiry.Equal(*got.TokenExpiryAt))
		})
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ("email")).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ("id")).WithArgs("u-1").WillReturnError(errors.New("db err"))

	_, err := repo.GetByID(context.Background(), "u-1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	u := pendingUser()
	now := created.Add(time.Hour)
	u.UpdatedAt = &now
	u.MarkVerified()

	t.Run("ok", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(updateQ).
			WithArgs("alice", "alice@x.com", "$argon2id$hash", 0, now, true, nil, nil, "u-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(context.Background(), u))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(updateQ).WillReturnResult(sqlmock.NewResult(0, 0))
		require.ErrorIs(t, repo.Update(context.Background(), u), common.ErrNotFound)
	})

	t.Run("email conflict", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(updateQ).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
		require.ErrorIs(t, repo.Update(context.Background(), u), common.ErrEmailTaken)
	})

	t.Run("rows affected error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(updateQ).WillReturnResult(sqlmock.NewErrorResult(errors.New("no count")))
		err := repo.Update(context.Background(), u)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no count")
	})
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteQ).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "u-1"))

	mock.ExpectExec(deleteQ).WithArgs("u-2").WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Delete(context.Background(), "u-2"), common.ErrNotFound)

	mock.ExpectExec(deleteQ).WithArgs("u-3").WillReturnError(errors.New("db err"))
	err := repo.Delete(context.Background(), "u-3")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrNotFound))
}
