package models

import "time"

type AccountType int

const (
	AccountTypeSavings  AccountType = 0
	AccountTypeChecking AccountType = 1
)

// AccountTypeFromCode maps a stored code; unknown codes are savings.
func AccountTypeFromCode(code int) AccountType {
	if code == int(AccountTypeChecking) {
		return AccountTypeChecking
	}
	return AccountTypeSavings
}

// Bank is the transfer account printed on a user's invoices.
type Bank struct {
	ID            string
	UserID        string
	Name          string
	Code          string
	AccountType   AccountType
	AccountNumber string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
