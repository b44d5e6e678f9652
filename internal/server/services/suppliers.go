package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akihokurino/works-server/internal/common"
	"github.com/akihokurino/works-server/internal/dbx"
	"github.com/akihokurino/works-server/internal/logging"
	"github.com/akihokurino/works-server/internal/server/models"
	"github.com/akihokurino/works-server/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	contactsPerPage = 100
	maxContactPages = 100
)

// SupplierService manages suppliers. Each supplier is filed under a Misoca
// contact whose recipient name equals the supplier name.
type SupplierService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      AccessTokens
	client      ContactClient
	log         logging.Logger

	newID func() string
}

// NewSupplierService constructs a SupplierService that resolves remote
// contacts through client.
func NewSupplierService(db *sql.DB, m repomanager.RepositoryManager, tokens AccessTokens, client ContactClient, log logging.Logger) *SupplierService {
	return &SupplierService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		client:      client,
		log:         log.With("module", "suppliers"),
		newID:       func() string { return uuid.NewString() },
	}
}

func validateParams(p models.SupplierParams) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: supplier name is required", common.ErrBadRequest)
	}
	if p.BillingAmount < 0 {
		return fmt.Errorf("%w: billing amount must not be negative", common.ErrBadRequest)
	}
	if !p.BillingType.IsValid() {
		return fmt.Errorf("%w: unknown billing type %q", common.ErrBadRequest, p.BillingType)
	}
	if p.BillingType == models.BillingTypeOneTime && p.EndYM != "" {
		if _, err := time.Parse("2006-01", p.EndYM); err != nil {
			return fmt.Errorf("%w: end month %q is not YYYY-MM", common.ErrBadRequest, p.EndYM)
		}
	}
	return nil
}

func (s *SupplierService) List(ctx context.Context, userID string) ([]*models.Supplier, error) {
	list, err := s.repomanager.Suppliers(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list suppliers: %w", common.ErrorInternal, err)
	}
	return list, nil
}

// Create files the supplier under the contact named like it, creating the
// contact when none exists.
func (s *SupplierService) Create(ctx context.Context, userID string, p models.SupplierParams, now time.Time) (*models.Supplier, error) {
	if err := validateParams(p); err != nil {
		return nil, err
	}

	token, err := s.tokens.EnsureAccessToken(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	contactID, groupID, err := s.findContact(ctx, token, p.Name)
	if errors.Is(err, common.ErrorNotFound) {
		c, cerr := s.client.CreateContact(ctx, token, p.Name)
		if cerr != nil {
			return nil, fmt.Errorf("%w: create misoca contact: %w", common.ErrorInternal, cerr)
		}
		contactID, groupID, err = c.IDString(), c.ContactGroupIDString(), nil
		s.log.Info(ctx, "misoca contact created", "contact_id", contactID)
	}
	if err != nil {
		return nil, err
	}

	supplier := models.NewSupplier(s.newID(), userID, contactID, groupID, p, now)
	if err := s.repomanager.Suppliers(s.db).Insert(ctx, supplier); err != nil {
		return nil, fmt.Errorf("%w: insert supplier: %w", common.ErrorInternal, err)
	}
	return supplier, nil
}

// Update re-resolves the contact by the new name. Unlike Create it never
// creates a contact.
func (s *SupplierService) Update(ctx context.Context, userID, id string, p models.SupplierParams, now time.Time) (*models.Supplier, error) {
	if err := validateParams(p); err != nil {
		return nil, err
	}

	if _, err := s.owned(ctx, s.db, userID, id); err != nil {
		return nil, err
	}

	token, err := s.tokens.EnsureAccessToken(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	contactID, groupID, err := s.findContact(ctx, token, p.Name)
	if err != nil {
		return nil, err
	}

	var supplier *models.Supplier
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		supplier, err = s.owned(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		supplier.ContactID = contactID
		supplier.ContactGroupID = groupID
		supplier.Update(p, now)
		return s.repomanager.Suppliers(tx).Update(ctx, supplier)
	})
	if err != nil {
		return nil, serviceError("update supplier", err)
	}
	return supplier, nil
}

// Delete removes the supplier together with its invoices.
func (s *SupplierService) Delete(ctx context.Context, userID, id string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.owned(ctx, tx, userID, id); err != nil {
			return err
		}
		if err := s.repomanager.Invoices(tx).DeleteBySupplier(ctx, id); err != nil {
			return err
		}
		return s.repomanager.Suppliers(tx).Delete(ctx, id)
	})
	if err != nil {
		return serviceError("delete supplier", err)
	}
	s.log.Info(ctx, "supplier deleted", "supplier_id", id)
	return nil
}

func (s *SupplierService) owned(ctx context.Context, db dbx.DBTX, userID, id string) (*models.Supplier, error) {
	supplier, err := s.repomanager.Suppliers(db).Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("supplier %s: %w", id, common.ErrorNotFound)
		}
		return nil, err
	}
	if supplier.UserID != userID {
		return nil, common.ErrForbidden
	}
	return supplier, nil
}

func (s *SupplierService) findContact(ctx context.Context, token, name string) (string, string, error) {
	for page := 1; page <= maxContactPages; page++ {
		contacts, err := s.client.GetContacts(ctx, token, page, contactsPerPage)
		if err != nil {
			return "", "", fmt.Errorf("%w: get misoca contacts: %w", common.ErrorInternal, err)
		}
		for _, c := range contacts {
			if c.RecipientName == name {
				return c.IDString(), c.ContactGroupIDString(), nil
			}
		}
		if len(contacts) < contactsPerPage {
			break
		}
	}
	return "", "", fmt.Errorf("misoca contact %q: %w", name, common.ErrorNotFound)
}

// serviceError keeps the caller-facing sentinels and folds anything else
// into common.ErrorInternal.
func serviceError(op string, err error) error {
	for _, known := range []error{common.ErrorNotFound, common.ErrForbidden, common.ErrBadRequest, common.ErrNotConnected} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %w", common.ErrorInternal, op, err)
}
