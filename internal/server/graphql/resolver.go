// Package graphql exposes the works API as a GraphQL schema served by
// graph-gophers/graphql-go. Resolvers read the caller from the request
// context and delegate to the services package.
package graphql

import (
	"context"
	_ "embed"
	"time"

	"github.com/akihokurino/works-server/internal/common"
	"github.com/akihokurino/works-server/internal/logging"
	"github.com/akihokurino/works-server/internal/server/auth"
	"github.com/akihokurino/works-server/internal/server/models"
	"github.com/akihokurino/works-server/internal/server/services"
	graphqlgo "github.com/graph-gophers/graphql-go"
)

//go:embed schema.graphql
var schemaSDL string

type UserService interface {
	Get(ctx context.Context, userID string) (*models.User, error)
	Authenticate(ctx context.Context, userID string, now time.Time) (*models.User, error)
	Sender(ctx context.Context, userID string) (*models.Sender, error)
	Bank(ctx context.Context, userID string) (*models.Bank, error)
}

type TokenService interface {
	AuthorizeURL(state string) string
	Connect(ctx context.Context, userID, code string, now time.Time) (string, error)
}

type SyncService interface {
	SyncUser(ctx context.Context, userID string, now time.Time) error
	SyncUserWithToken(ctx context.Context, userID, accessToken string) error
}

type SupplierService interface {
	List(ctx context.Context, userID string) ([]*models.Supplier, error)
	Create(ctx context.Context, userID string, p models.SupplierParams, now time.Time) (*models.Supplier, error)
	Update(ctx context.Context, userID, id string, p models.SupplierParams, now time.Time) (*models.Supplier, error)
	Delete(ctx context.Context, userID, id string) error
}

type InvoiceService interface {
	ListBySupplier(ctx context.Context, userID, supplierID string, pager models.Pager) (*services.InvoicePage, error)
	History(ctx context.Context, userID string, pager models.Pager) (*services.InvoiceHistoryPage, error)
	DownloadPDF(ctx context.Context, userID, invoiceID string, now time.Time) (string, error)
}

// Resolver is the root resolver for both Query and Mutation.
type Resolver struct {
	users     UserService
	tokens    TokenService
	sync      SyncService
	suppliers SupplierService
	invoices  InvoiceService
	log       logging.Logger

	now func() time.Time
}

// NewResolver constructs the root resolver over the services.
func NewResolver(users UserService, tokens TokenService, sync SyncService, suppliers SupplierService, invoices InvoiceService, log logging.Logger) *Resolver {
	return &Resolver{
		users:     users,
		tokens:    tokens,
		sync:      sync,
		suppliers: suppliers,
		invoices:  invoices,
		log:       log.With("module", "graphql"),
		now:       time.Now,
	}
}

// NewSchema parses the embedded schema against r.
func NewSchema(r *Resolver) (*graphqlgo.Schema, error) {
	return graphqlgo.ParseSchema(schemaSDL, r)
}

func (r *Resolver) fail(ctx context.Context, err error) error {
	e := toError(err)
	if e.code == codeInternal {
		r.log.Error(ctx, "resolver failed", "error", err)
	}
	return e
}

func (r *Resolver) userID(ctx context.Context) (string, error) {
	id, ok := auth.UserIDFrom(ctx)
	if !ok {
		return "", r.fail(ctx, common.ErrorUnauthorized)
	}
	return id, nil
}
