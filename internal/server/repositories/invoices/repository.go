package invoices

import (
	"context"

	"github.com/akihokurino/works-server/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, id string) (*models.Invoice, error)
	Insert(ctx context.Context, inv *models.Invoice) error
	// Update replaces every column but id, supplier_id and created_at.
	Update(ctx context.Context, inv *models.Invoice) error
	UpdatePDFPath(ctx context.Context, id string, path string) error
	DeleteBySupplier(ctx context.Context, supplierID string) error

	ListBySupplier(ctx context.Context, supplierID string, pager models.Pager) ([]*models.Invoice, error)
	CountBySupplier(ctx context.Context, supplierID string) (int, error)
	ListByUser(ctx context.Context, userID string, pager models.Pager) ([]*models.InvoiceHistory, error)
	CountByUser(ctx context.Context, userID string) (int, error)

	// GetAllBySupplierIDs fetches the invoices of every given supplier with a
	// single query. Suppliers without invoices are absent from the map.
	GetAllBySupplierIDs(ctx context.Context, supplierIDs []string) (map[string][]*models.Invoice, error)
}
