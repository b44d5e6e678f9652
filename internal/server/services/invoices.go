package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akihokurino/works-server/internal/common"
	"github.com/akihokurino/works-server/internal/logging"
	"github.com/akihokurino/works-server/internal/server/config"
	"github.com/akihokurino/works-server/internal/server/models"
	"github.com/akihokurino/works-server/internal/server/repositories/repomanager"
)

// InvoicePage is one page of a paged invoice listing.
type InvoicePage struct {
	Invoices   []*models.Invoice
	TotalCount int
	HasNext    bool
}

type InvoiceHistoryPage struct {
	Items      []*models.InvoiceHistory
	TotalCount int
	HasNext    bool
}

type InvoiceService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      AccessTokens
	client      InvoiceClient
	store       PDFStore
	urlValidity time.Duration
	log         logging.Logger
}

// NewInvoiceService constructs an InvoiceService. PDFs are kept in store and
// linked for cfg.InvoicePDFURLValidity.
func NewInvoiceService(db *sql.DB, m repomanager.RepositoryManager, tokens AccessTokens, client InvoiceClient, store PDFStore, cfg *config.Config, log logging.Logger) *InvoiceService {
	return &InvoiceService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		client:      client,
		store:       store,
		urlValidity: cfg.InvoicePDFURLValidity,
		log:         log.With("module", "invoices"),
	}
}

// ListBySupplier pages through the invoices of a supplier the user owns.
func (s *InvoiceService) ListBySupplier(ctx context.Context, userID, supplierID string, pager models.Pager) (*InvoicePage, error) {
	supplier, err := s.repomanager.Suppliers(s.db).Get(ctx, supplierID)
	if err != nil {
		return nil, serviceError("get supplier", err)
	}
	if supplier.UserID != userID {
		return nil, common.ErrForbidden
	}

	repo := s.repomanager.Invoices(s.db)
	list, err := repo.ListBySupplier(ctx, supplierID, pager)
	if err != nil {
		return nil, fmt.Errorf("%w: list invoices: %w", common.ErrorInternal, err)
	}
	total, err := repo.CountBySupplier(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("%w: count invoices: %w", common.ErrorInternal, err)
	}
	return &InvoicePage{Invoices: list, TotalCount: total, HasNext: pager.HasNext(total)}, nil
}

// History pages through the invoices of all of the user's suppliers.
func (s *InvoiceService) History(ctx context.Context, userID string, pager models.Pager) (*InvoiceHistoryPage, error) {
	repo := s.repomanager.Invoices(s.db)
	items, err := repo.ListByUser(ctx, userID, pager)
	if err != nil {
		return nil, fmt.Errorf("%w: list invoice history: %w", common.ErrorInternal, err)
	}
	total, err := repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: count invoice history: %w", common.ErrorInternal, err)
	}
	return &InvoiceHistoryPage{Items: items, TotalCount: total, HasNext: pager.HasNext(total)}, nil
}

// DownloadPDF returns a presigned URL of the invoice PDF. The PDF is
// rendered remotely and stored once per invoice revision; later calls for the
// same revision only presign.
func (s *InvoiceService) DownloadPDF(ctx context.Context, userID, invoiceID string, now time.Time) (string, error) {
	invoice, err := s.repomanager.Invoices(s.db).Get(ctx, invoiceID)
	if err != nil {
		return "", serviceError("get invoice", err)
	}

	supplier, err := s.repomanager.Suppliers(s.db).Get(ctx, invoice.SupplierID)
	if err != nil {
		return "", serviceError("get supplier", err)
	}
	if supplier.UserID != userID {
		return "", common.ErrForbidden
	}

	key := invoice.PDFKey()
	if !invoice.HasCurrentPDF() {
		token, err := s.tokens.EnsureAccessToken(ctx, userID, now)
		if err != nil {
			return "", err
		}

		pdf, err := s.client.GetInvoicePDF(ctx, token, invoice.ID)
		if err != nil {
			return "", fmt.Errorf("%w: get misoca pdf: %w", common.ErrorInternal, err)
		}
		if err := s.store.Put(ctx, key, pdf); err != nil {
			return "", fmt.Errorf("%w: store pdf: %w", common.ErrorInternal, err)
		}
		if err := s.repomanager.Invoices(s.db).UpdatePDFPath(ctx, invoice.ID, key); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return "", err
			}
			return "", fmt.Errorf("%w: update pdf path: %w", common.ErrorInternal, err)
		}
		s.log.Info(ctx, "invoice pdf stored", "invoice_id", invoice.ID, "key", key)
	}

	url, err := s.store.PresignGet(ctx, key, s.urlValidity)
	if err != nil {
		return "", fmt.Errorf("%w: presign pdf: %w", common.ErrorInternal, err)
	}
	return url, nil
}
