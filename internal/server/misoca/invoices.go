package misoca

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/akihokurino/works-server/internal/common"
	"github.com/akihokurino/works-server/internal/server/models"
)

// Invoice is the invoice payload of /api/v3/invoices. Every field may be
// absent.
type Invoice struct {
	ID            flexID       `json:"id"`
	IssueDate     string       `json:"issue_date"`
	PaymentDueOn  string       `json:"payment_due_on"`
	InvoiceNumber string       `json:"invoice_number"`
	PaymentStatus *int         `json:"payment_status"`
	InvoiceStatus *int         `json:"invoice_status"`
	RecipientName string       `json:"recipient_name"`
	Subject       string       `json:"subject"`
	Body          *InvoiceBody `json:"body"`
	CreatedAt     string       `json:"created_at"`
	UpdatedAt     string       `json:"updated_at"`
}

type InvoiceBody struct {
	TotalAmount flexAmount `json:"total_amount"`
	Tax         flexAmount `json:"tax"`
}

type GetInvoicesInput struct {
	AccessToken    string
	Page           int
	PerPage        int
	ContactGroupID string
}

// GetInvoices fetches one page of the invoices filed under a contact group.
func (c *Client) GetInvoices(ctx context.Context, in GetInvoicesInput) ([]Invoice, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(in.Page))
	q.Set("per_page", strconv.Itoa(in.PerPage))
	q.Set("contact_group_id", in.ContactGroupID)

	var out []Invoice
	if err := c.call(ctx, http.MethodGet, "/api/v3/invoices", in.AccessToken, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ToModel converts the payload into a local invoice of supplierID.
// Malformed dates or amounts yield common.ErrBadRequest.
func (i *Invoice) ToModel(supplierID string) (*models.Invoice, error) {
	if i.ID == "" {
		return nil, fmt.Errorf("%w: invoice without id", common.ErrBadRequest)
	}

	issue, err := models.ParseYMD(i.IssueDate)
	if err != nil {
		return nil, fmt.Errorf("invoice %s issue_date: %w", i.ID, err)
	}
	due, err := models.ParseYMD(i.PaymentDueOn)
	if err != nil {
		return nil, fmt.Errorf("invoice %s payment_due_on: %w", i.ID, err)
	}

	var total, tax int64
	if i.Body != nil {
		if total, err = i.Body.TotalAmount.MinorUnits(); err != nil {
			return nil, fmt.Errorf("%w: invoice %s total_amount: %w", common.ErrBadRequest, i.ID, err)
		}
		if tax, err = i.Body.Tax.MinorUnits(); err != nil {
			return nil, fmt.Errorf("%w: invoice %s tax: %w", common.ErrBadRequest, i.ID, err)
		}
	}

	createdAt, err := parseTimestamp(i.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: invoice %s created_at: %w", common.ErrBadRequest, i.ID, err)
	}
	updatedAt, err := parseTimestamp(i.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: invoice %s updated_at: %w", common.ErrBadRequest, i.ID, err)
	}

	return &models.Invoice{
		ID:              string(i.ID),
		SupplierID:      supplierID,
		IssueYMD:        issue,
		PaymentDueOnYMD: due,
		InvoiceNumber:   i.InvoiceNumber,
		PaymentStatus:   models.PaymentStatusFromCode(deref(i.PaymentStatus)),
		InvoiceStatus:   models.InvoiceStatusFromCode(deref(i.InvoiceStatus)),
		RecipientName:   i.RecipientName,
		Subject:         i.Subject,
		TotalAmount:     total,
		Tax:             tax,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

// parseTimestamp reads RFC 3339; empty is the zero time. Results are UTC at
// microsecond precision, the resolution of a stored timestamptz, so a
// watermark compares equal after a database round trip.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC().Truncate(time.Microsecond), nil
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
