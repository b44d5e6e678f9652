package services

import (
	"context"
	"time"

	"github.com/akihokurino/works-server/internal/server/misoca"
)

// The slices of the Misoca client each service depends on. *misoca.Client
// satisfies all of them.

type TokenClient interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*misoca.TokenPair, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*misoca.TokenPair, error)
}

type InvoiceClient interface {
	GetInvoices(ctx context.Context, in misoca.GetInvoicesInput) ([]misoca.Invoice, error)
	GetInvoicePDF(ctx context.Context, accessToken string, invoiceID string) ([]byte, error)
}

type ContactClient interface {
	GetContacts(ctx context.Context, accessToken string, page, perPage int) ([]misoca.Contact, error)
	CreateContact(ctx context.Context, accessToken string, recipientName string) (*misoca.Contact, error)
}

// PDFStore keeps rendered invoice PDFs. *pdfstore.S3Store satisfies it.
type PDFStore interface {
	Put(ctx context.Context, key string, pdf []byte) error
	PresignGet(ctx context.Context, key string, validity time.Duration) (string, error)
}

// AccessTokens hands out a fresh Misoca access token for a user.
type AccessTokens interface {
	EnsureAccessToken(ctx context.Context, userID string, now time.Time) (string, error)
}
