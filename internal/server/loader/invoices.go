package loader

import (
	"context"
	"fmt"

	"github.com/akihokurino/works-server/internal/common"
	"github.com/akihokurino/works-server/internal/server/models"
	"github.com/akihokurino/works-server/internal/server/repositories/invoices"
)

// SupplierInvoices loads the invoices of a supplier by supplier id.
type SupplierInvoices = Loader[string, []*models.Invoice]

// NewSupplierInvoices batches lookups into one
// invoices.Repository.GetAllBySupplierIDs call per batch.
func NewSupplierInvoices(ctx context.Context, repo invoices.Repository, opts Options) *SupplierInvoices {
	return New[string, []*models.Invoice](ctx, func(ctx context.Context, supplierIDs []string) (map[string][]*models.Invoice, error) {
		m, err := repo.GetAllBySupplierIDs(ctx, supplierIDs)
		if err != nil {
			return nil, fmt.Errorf("%w: load supplier invoices: %w", common.ErrorInternal, err)
		}
		return m, nil
	}, opts)
}

type ctxKey struct{}

func WithSupplierInvoices(ctx context.Context, l *SupplierInvoices) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

func SupplierInvoicesFrom(ctx context.Context) (*SupplierInvoices, bool) {
	l, ok := ctx.Value(ctxKey{}).(*SupplierInvoices)
	return l, ok
}
