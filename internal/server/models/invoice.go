package models

import (
	"fmt"
	"time"
)

type PaymentStatus int

const (
	PaymentStatusUnpaid PaymentStatus = 0
	PaymentStatusPaid   PaymentStatus = 1
)

// PaymentStatusFromCode maps a remote code; anything but 1 is unpaid.
func PaymentStatusFromCode(code int) PaymentStatus {
	if code == int(PaymentStatusPaid) {
		return PaymentStatusPaid
	}
	return PaymentStatusUnpaid
}

type InvoiceStatus int

const (
	InvoiceStatusUnsubmitted InvoiceStatus = 0
	InvoiceStatusSubmitted   InvoiceStatus = 1
)

// InvoiceStatusFromCode maps a remote code; anything but 1 is unsubmitted.
func InvoiceStatusFromCode(code int) InvoiceStatus {
	if code == int(InvoiceStatusSubmitted) {
		return InvoiceStatusSubmitted
	}
	return InvoiceStatusUnsubmitted
}

// Invoice is the local copy of a remote invoice. ID is the remote id and
// UpdatedAt is the remote modification time; a stored row is superseded
// only when a fetched copy carries a different UpdatedAt. Amounts are in
// minor units.
type Invoice struct {
	ID              string
	SupplierID      string
	IssueYMD        YMD
	PaymentDueOnYMD YMD
	InvoiceNumber   string
	PaymentStatus   PaymentStatus
	InvoiceStatus   InvoiceStatus
	RecipientName   string
	Subject         string
	TotalAmount     int64
	Tax             int64
	PDFPath         *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ShouldUpdate reports whether other supersedes i.
func (i *Invoice) ShouldUpdate(other *Invoice) bool {
	return !i.UpdatedAt.Equal(other.UpdatedAt)
}

// PDFKey is the object key of the rendered PDF for this revision.
func (i *Invoice) PDFKey() string {
	return fmt.Sprintf("invoice/%s_%s.pdf", i.ID, i.UpdatedAt.UTC().Format("20060102150405"))
}

// HasCurrentPDF reports whether PDFPath points at this revision's PDF.
func (i *Invoice) HasCurrentPDF() bool {
	return i.PDFPath != nil && *i.PDFPath == i.PDFKey()
}

// InvoiceHistory pairs an invoice with its supplier for the user-wide list.
type InvoiceHistory struct {
	Invoice  *Invoice
	Supplier *Supplier
}
