// Package repomanager provides RepositoryManager implementations for
// PostgreSQL (migrations via goose) and for process memory.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/fplassistant/internal/dbx"
	"github.com/dmitrijs2005/fplassistant/internal/server/migrations"
	"github.com/dmitrijs2005/fplassistant/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct {
	db *sql.DB
}

// DB returns the pool.
func (m *PostgresRepositoryManager) DB() dbx.DBTX {
	return m.db
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// WithTx runs fn in a database transaction.
func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return dbx.WithTx(ctx, m.db, nil, fn)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the pool.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}

// Close closes the pool.
func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// NewPostgresRepositoryManager opens a pgx pool for dsn and checks it.
func NewPostgresRepositoryManager(ctx context.Context, dsn string) (RepositoryManager, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewPostgresRepositoryManagerWithDB(db), nil
}

// NewPostgresRepositoryManagerWithDB wraps an already opened pool.
func NewPostgresRepositoryManagerWithDB(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db}
}
