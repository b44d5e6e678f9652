package invoices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akihokurino/works-server/internal/common"
	"github.com/akihokurino/works-server/internal/dbx"
	"github.com/akihokurino/works-server/internal/server/models"
)

const (
	columns = `i.id, i.supplier_id, i.issue_ymd, i.payment_due_on_ymd, i.invoice_number, i.payment_status,
		 i.invoice_status, i.recipient_name, i.subject, i.total_amount, i.tax, i.pdf_path, i.created_at, i.updated_at`

	supplierColumns = `s.id, s.user_id, s.contact_id, s.contact_group_id, s.name, s.billing_amount, s.billing_type,
		 s.end_ym, s.subject, s.subject_template, s.created_at, s.updated_at`

	order = `ORDER BY i.issue_at DESC NULLS LAST, i.id DESC`
)

type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs an invoices repository over db.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// invoiceRow holds the raw column values of one invoice.
type invoiceRow struct {
	inv             models.Invoice
	issueYMD        string
	paymentDueOnYMD string
	paymentStatus   int
	invoiceStatus   int
	pdfPath         sql.NullString
}

func (r *invoiceRow) dest() []any {
	return []any{&r.inv.ID, &r.inv.SupplierID, &r.issueYMD, &r.paymentDueOnYMD, &r.inv.InvoiceNumber,
		&r.paymentStatus, &r.invoiceStatus, &r.inv.RecipientName, &r.inv.Subject, &r.inv.TotalAmount,
		&r.inv.Tax, &r.pdfPath, &r.inv.CreatedAt, &r.inv.UpdatedAt}
}

func (r *invoiceRow) toModel() (*models.Invoice, error) {
	inv := r.inv
	var err error
	if inv.IssueYMD, err = models.ParseYMD(r.issueYMD); err != nil {
		return nil, err
	}
	if inv.PaymentDueOnYMD, err = models.ParseYMD(r.paymentDueOnYMD); err != nil {
		return nil, err
	}
	inv.PaymentStatus = models.PaymentStatusFromCode(r.paymentStatus)
	inv.InvoiceStatus = models.InvoiceStatusFromCode(r.invoiceStatus)
	if r.pdfPath.Valid {
		p := r.pdfPath.String
		inv.PDFPath = &p
	}
	return &inv, nil
}

func scanInvoice(row rowScanner) (*models.Invoice, error) {
	var r invoiceRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, err
	}
	return r.toModel()
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Invoice, error) {
	query := `SELECT ` + columns + ` FROM invoices i WHERE i.id = $1`

	inv, err := scanInvoice(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return inv, nil
}

func pdfPathArg(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func (r *PostgresRepository) Insert(ctx context.Context, inv *models.Invoice) error {
	query :=
		`INSERT INTO invoices (id, supplier_id, issue_ymd, issue_at, payment_due_on_ymd, payment_due_on_at,
		 invoice_number, payment_status, invoice_status, recipient_name, subject, total_amount, tax,
		 pdf_path, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 `

	_, err := r.db.ExecContext(ctx, query,
		inv.ID, inv.SupplierID, inv.IssueYMD.String(), inv.IssueYMD.Time(),
		inv.PaymentDueOnYMD.String(), inv.PaymentDueOnYMD.Time(), inv.InvoiceNumber,
		int(inv.PaymentStatus), int(inv.InvoiceStatus), inv.RecipientName, inv.Subject,
		inv.TotalAmount, inv.Tax, pdfPathArg(inv.PDFPath), inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// Update replaces the remote fields of a stored invoice. supplier_id is
// fixed at insert.
func (r *PostgresRepository) Update(ctx context.Context, inv *models.Invoice) error {
	query :=
		`UPDATE invoices SET issue_ymd = $2, issue_at = $3, payment_due_on_ymd = $4,
		 payment_due_on_at = $5, invoice_number = $6, payment_status = $7, invoice_status = $8,
		 recipient_name = $9, subject = $10, total_amount = $11, tax = $12, pdf_path = $13, updated_at = $14
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		inv.ID, inv.IssueYMD.String(), inv.IssueYMD.Time(),
		inv.PaymentDueOnYMD.String(), inv.PaymentDueOnYMD.Time(), inv.InvoiceNumber,
		int(inv.PaymentStatus), int(inv.InvoiceStatus), inv.RecipientName, inv.Subject,
		inv.TotalAmount, inv.Tax, pdfPathArg(inv.PDFPath), inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOne(res)
}

func (r *PostgresRepository) UpdatePDFPath(ctx context.Context, id string, path string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE invoices SET pdf_path = $2 WHERE id = $1`, id, path)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOne(res)
}

func (r *PostgresRepository) DeleteBySupplier(ctx context.Context, supplierID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE supplier_id = $1`, supplierID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListBySupplier(ctx context.Context, supplierID string, pager models.Pager) ([]*models.Invoice, error) {
	query := `SELECT ` + columns + ` FROM invoices i WHERE i.supplier_id = $1 ` + order + ` LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, supplierID, pager.Limit, pager.Offset())
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) count(ctx context.Context, query string, arg string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) CountBySupplier(ctx context.Context, supplierID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM invoices WHERE supplier_id = $1`, supplierID)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, pager models.Pager) ([]*models.InvoiceHistory, error) {
	query :=
		`SELECT ` + columns + `, ` + supplierColumns + `
		 FROM invoices i JOIN suppliers s ON s.id = i.supplier_id
		 WHERE s.user_id = $1 ` + order + ` LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, pager.Limit, pager.Offset())
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.InvoiceHistory
	for rows.Next() {
		var ir invoiceRow
		s := &models.Supplier{}
		var billingType string
		dest := append(ir.dest(),
			&s.ID, &s.UserID, &s.ContactID, &s.ContactGroupID, &s.Name, &s.BillingAmount, &billingType,
			&s.EndYM, &s.Subject, &s.SubjectTemplate, &s.CreatedAt, &s.UpdatedAt)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		s.BillingType = models.BillingType(billingType)

		inv, err := ir.toModel()
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &models.InvoiceHistory{Invoice: inv, Supplier: s})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	return r.count(ctx,
		`SELECT COUNT(*) FROM invoices i JOIN suppliers s ON s.id = i.supplier_id WHERE s.user_id = $1`, userID)
}

func (r *PostgresRepository) GetAllBySupplierIDs(ctx context.Context, supplierIDs []string) (map[string][]*models.Invoice, error) {
	result := make(map[string][]*models.Invoice, len(supplierIDs))
	if len(supplierIDs) == 0 {
		return result, nil
	}

	query, args, err := dbx.In(`SELECT `+columns+` FROM invoices i WHERE i.supplier_id IN (?) `+order, supplierIDs)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result[inv.SupplierID] = append(result[inv.SupplierID], inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
