package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTransactionCompleted = "transaction.completed"
	EventTransactionRejected  = "transaction.rejected"
	EventAccountCreated       = "account.created"
)

// TransactionEvent describes one credit/debit attempt, successful or not.
// PreviousBalance and NewBalance are only meaningful when Success is true.
type TransactionEvent struct {
	EventID         string          `json:"eventId"`
	AccountID       string          `json:"accountId"`
	Type            TransactionType `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	PreviousBalance decimal.Decimal `json:"previousBalance"`
	NewBalance      decimal.Decimal `json:"newBalance"`
	Success         bool            `json:"success"`
	Message         string          `json:"message,omitempty"`
	Reference       string          `json:"reference,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}

// NotificationEvent announces account lifecycle changes to interested
// consumers (welcome email, statements, and so on).
type NotificationEvent struct {
	EventID   string    `json:"eventId"`
	AccountID string    `json:"accountId"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
