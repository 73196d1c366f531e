package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/foundationauth/internal/dbx"
	"github.com/dmitrijs2005/foundationauth/internal/server/migrations"
	"github.com/dmitrijs2005/foundationauth/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// SQLiteRepositoryManager vends SQLite-backed repositories.
type SQLiteRepositoryManager struct{}

func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{}
}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Dialect() string { return "sqlite3" }

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.SQLite)
	if err := goose.SetDialect(m.Dialect()); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
