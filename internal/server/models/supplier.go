package models

import "time"

type BillingType string

const (
	BillingTypeMonthly BillingType = "monthly"
	BillingTypeOneTime BillingType = "one_time"
)

func (b BillingType) IsValid() bool {
	return b == BillingTypeMonthly || b == BillingTypeOneTime
}

// Supplier is a billing counterparty owned by a user. ContactID and
// ContactGroupID reference the remote address book entry invoices are
// filed under. BillingAmount is in minor units, before tax.
type Supplier struct {
	ID              string
	UserID          string
	ContactID       string
	ContactGroupID  string
	Name            string
	BillingAmount   int64
	BillingType     BillingType
	EndYM           string
	Subject         string
	SubjectTemplate string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type SupplierParams struct {
	Name            string
	BillingAmount   int64
	BillingType     BillingType
	EndYM           string
	Subject         string
	SubjectTemplate string
}

// NewSupplier builds a supplier filed under the given remote contact.
func NewSupplier(id, userID, contactID, contactGroupID string, p SupplierParams, now time.Time) *Supplier {
	s := &Supplier{
		ID:             id,
		UserID:         userID,
		ContactID:      contactID,
		ContactGroupID: contactGroupID,
		CreatedAt:      now,
	}
	s.Update(p, now)
	return s
}

// Update replaces the editable fields. A monthly supplier has no end month.
func (s *Supplier) Update(p SupplierParams, now time.Time) {
	s.Name = p.Name
	s.BillingAmount = p.BillingAmount
	s.BillingType = p.BillingType
	s.EndYM = p.EndYM
	if p.BillingType == BillingTypeMonthly {
		s.EndYM = ""
	}
	s.Subject = p.Subject
	s.SubjectTemplate = p.SubjectTemplate
	s.UpdatedAt = now
}

// BillingAmountIncludeTax adds 10% consumption tax, truncated.
func (s *Supplier) BillingAmountIncludeTax() int64 {
	return s.BillingAmount + s.BillingAmount/10
}
