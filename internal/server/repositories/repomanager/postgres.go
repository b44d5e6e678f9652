// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/akihokurino/works-server/internal/dbx"
	"github.com/akihokurino/works-server/internal/server/migrations"
	"github.com/akihokurino/works-server/internal/server/repositories/banks"
	"github.com/akihokurino/works-server/internal/server/repositories/invoices"
	"github.com/akihokurino/works-server/internal/server/repositories/senders"
	"github.com/akihokurino/works-server/internal/server/repositories/suppliers"
	"github.com/akihokurino/works-server/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct {
	sealer users.Sealer
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db, m.sealer)
}

func (m *PostgresRepositoryManager) Suppliers(db dbx.DBTX) suppliers.Repository {
	return suppliers.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Invoices(db dbx.DBTX) invoices.Repository {
	return invoices.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Senders(db dbx.DBTX) senders.Repository {
	return senders.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Banks(db dbx.DBTX) banks.Repository {
	return banks.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
// sealer protects refresh tokens written through Users.
func NewPostgresRepositoryManager(sealer users.Sealer) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{sealer: sealer}
}
