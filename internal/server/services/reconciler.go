package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akihokurino/works-server/internal/common"
	"github.com/akihokurino/works-server/internal/dbx"
	"github.com/akihokurino/works-server/internal/logging"
	"github.com/akihokurino/works-server/internal/server/config"
	"github.com/akihokurino/works-server/internal/server/misoca"
	"github.com/akihokurino/works-server/internal/server/models"
	"github.com/akihokurino/works-server/internal/server/repositories/repomanager"
)

// maxSyncPages bounds the pagination loop of a single supplier.
const maxSyncPages = 1000

// SyncResult counts what one supplier sync did to the local store.
// SyncResult counts what one supplier sync did. Conflicts are remote
// invoices already stored under another supplier that shares the contact
// group; they are left alone.
type SyncResult struct {
	Inserted  int
	Updated   int
	Skipped   int
	Conflicts int
}

// Reconciler mirrors remote invoices into the local store. An invoice is
// inserted when absent and replaced when its remote updated_at differs from
// the stored one; otherwise the stored row is left alone.
type Reconciler struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      AccessTokens
	client      InvoiceClient
	perPage     int
	log         logging.Logger
}

// NewReconciler constructs a Reconciler using the repositories in m, the
// token source and the Misoca invoice client. Page size comes from
// cfg.SyncPerPage.
func NewReconciler(db *sql.DB, m repomanager.RepositoryManager, tokens AccessTokens, client InvoiceClient, cfg *config.Config, log logging.Logger) *Reconciler {
	perPage := cfg.SyncPerPage
	if perPage <= 0 {
		perPage = 100
	}
	return &Reconciler{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		client:      client,
		perPage:     perPage,
		log:         log.With("module", "reconciler"),
	}
}

// SyncSupplier fetches every remote invoice of the supplier's contact group
// and applies them in one transaction. The supplier row stays locked for the
// duration of the write phase. The remote fetch happens before the
// transaction opens.
func (r *Reconciler) SyncSupplier(ctx context.Context, supplier *models.Supplier, accessToken string) (SyncResult, error) {
	fetched, err := r.fetchAll(ctx, supplier, accessToken)
	if err != nil {
		return SyncResult{}, err
	}

	var res SyncResult
	err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res = SyncResult{}

		if _, err := r.repomanager.Suppliers(tx).LockByID(ctx, supplier.ID); err != nil {
			return fmt.Errorf("lock supplier: %w", err)
		}

		repo := r.repomanager.Invoices(tx)
		for _, inv := range fetched {
			stored, err := repo.Get(ctx, inv.ID)
			switch {
			case errors.Is(err, common.ErrorNotFound):
				if err := repo.Insert(ctx, inv); err != nil {
					return fmt.Errorf("insert invoice %s: %w", inv.ID, err)
				}
				res.Inserted++
			case err != nil:
				return fmt.Errorf("get invoice %s: %w", inv.ID, err)
			case stored.SupplierID != supplier.ID:
				r.log.Warn(ctx, "invoice belongs to another supplier",
					"invoice_id", inv.ID, "supplier_id", supplier.ID, "owner_id", stored.SupplierID)
				res.Conflicts++
			case stored.ShouldUpdate(inv):
				if err := repo.Update(ctx, inv); err != nil {
					return fmt.Errorf("update invoice %s: %w", inv.ID, err)
				}
				res.Updated++
			default:
				res.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return SyncResult{}, err
		}
		return SyncResult{}, fmt.Errorf("%w: sync supplier %s: %w", common.ErrorInternal, supplier.ID, err)
	}

	r.log.Info(ctx, "supplier synced",
		"supplier_id", supplier.ID, "inserted", res.Inserted, "updated", res.Updated, "skipped", res.Skipped, "conflicts", res.Conflicts)
	return res, nil
}

// fetchAll walks the remote pages until one comes back short.
func (r *Reconciler) fetchAll(ctx context.Context, supplier *models.Supplier, accessToken string) ([]*models.Invoice, error) {
	var out []*models.Invoice
	for page := 1; ; page++ {
		if page > maxSyncPages {
			return nil, fmt.Errorf("%w: supplier %s has more than %d pages of invoices", common.ErrorInternal, supplier.ID, maxSyncPages)
		}

		batch, err := r.client.GetInvoices(ctx, misoca.GetInvoicesInput{
			AccessToken:    accessToken,
			Page:           page,
			PerPage:        r.perPage,
			ContactGroupID: supplier.ContactGroupID,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: get misoca invoices: %w", common.ErrorInternal, err)
		}

		for i := range batch {
			inv, err := batch[i].ToModel(supplier.ID)
			if err != nil {
				return nil, err
			}
			out = append(out, inv)
		}

		if len(batch) < r.perPage {
			return out, nil
		}
	}
}

// SyncUser refreshes the user's token once and syncs each supplier in turn.
// It stops at the first failing supplier; suppliers synced before it stay
// committed.
func (r *Reconciler) SyncUser(ctx context.Context, userID string, now time.Time) error {
	token, err := r.tokens.EnsureAccessToken(ctx, userID, now)
	if err != nil {
		return err
	}
	return r.SyncUserWithToken(ctx, userID, token)
}

// SyncUserWithToken is SyncUser for a caller that already holds an access
// token, such as the connect flow right after the code exchange.
func (r *Reconciler) SyncUserWithToken(ctx context.Context, userID, accessToken string) error {
	list, err := r.repomanager.Suppliers(r.db).ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: list suppliers: %w", common.ErrorInternal, err)
	}

	for _, s := range list {
		if _, err := r.SyncSupplier(ctx, s, accessToken); err != nil {
			return err
		}
	}
	return nil
}
