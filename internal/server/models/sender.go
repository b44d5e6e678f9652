package models

import "time"

// Sender is the issuer block printed on a user's invoices.
type Sender struct {
	ID         string
	UserID     string
	Name       string
	Email      string
	Tel        string
	PostalCode string
	Address    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
