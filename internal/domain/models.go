package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the authoritative record of a customer balance. Balance is an
// exact decimal, never a float. Revision is bumped on every balance write so
// readers can detect concurrent change without blocking.
type Account struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	NationalID string          `json:"nationalId"`
	BirthDate  time.Time       `json:"birthDate"`
	Balance    decimal.Decimal `json:"balance"`
	Email      string          `json:"email,omitempty"`
	Phone      string          `json:"phone,omitempty"`
	Revision   int64           `json:"revision"`
	CreatedAt  time.Time       `json:"createdTimestamp"`
	UpdatedAt  time.Time       `json:"updatedTimestamp"`
}

// MinimumAccountAge is the youngest a holder may be at account creation.
const MinimumAccountAge = 18

// Age returns full calendar years between birthDate and now. The birthday
// itself counts: someone born exactly 18 years ago today is 18.
func Age(birthDate, now time.Time) int {
	years := now.Year() - birthDate.Year()
	anniversary := birthDate.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

// AccountCreationRequest carries the inputs for opening an account.
type AccountCreationRequest struct {
	Name       string    `json:"name"`
	NationalID string    `json:"nationalId"`
	BirthDate  time.Time `json:"birthDate"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
}

// TransactionType identifies the direction of a balance mutation.
type TransactionType string

const (
	TypeCredit TransactionType = "CREDIT"
	TypeDebit  TransactionType = "DEBIT"
)

// TransactionRequest asks for a single-account balance mutation. Reference is
// an optional idempotency tag (the transfer saga sets it to sagaID:step so a
// replayed compensation can be recognised downstream).
type TransactionRequest struct {
	AccountID string          `json:"accountId"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
}

// TransactionStatus is the outcome of a credit or debit.
type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusRejected  TransactionStatus = "REJECTED"
)

// TransactionResult is what callers of credit/debit get back. A REJECTED
// result is a normal business outcome, not a fault.
type TransactionResult struct {
	Status  TransactionStatus `json:"status"`
	Message string            `json:"message"`
}

// MaskNationalID hides the middle digits of a national id for log output.
func MaskNationalID(id string) string {
	if len(id) < 9 {
		return "***"
	}
	return id[:3] + "*****" + id[8:]
}
