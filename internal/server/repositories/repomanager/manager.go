package repomanager

import (
	"context"
	"database/sql"

	"github.com/akihokurino/works-server/internal/dbx"
	"github.com/akihokurino/works-server/internal/server/repositories/banks"
	"github.com/akihokurino/works-server/internal/server/repositories/invoices"
	"github.com/akihokurino/works-server/internal/server/repositories/senders"
	"github.com/akihokurino/works-server/internal/server/repositories/suppliers"
	"github.com/akihokurino/works-server/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a pooled handle or to an
// open transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Suppliers(db dbx.DBTX) suppliers.Repository
	Invoices(db dbx.DBTX) invoices.Repository
	Senders(db dbx.DBTX) senders.Repository
	Banks(db dbx.DBTX) banks.Repository
}
