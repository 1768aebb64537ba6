package messaging

import "time"

// Request streams consumed by the background worker.
const (
	StreamAccountCreate = "banking.account.create"
	StreamCredit        = "banking.transaction.credit"
	StreamDebit         = "banking.transaction.debit"
)

// Outcome streams published after processing.
const (
	StreamAccountCreated       = "banking.account.created"
	StreamAccountFailed        = "banking.account.failed"
	StreamTransactionProcessed = "banking.transaction.processed"
	StreamTransactionFailed    = "banking.transaction.failed"
	StreamNotifications        = "banking.notifications"
)

// Message is the envelope stored in the stream entry's "event" field.
type Message struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Message kinds for the request streams.
const (
	KindAccountCreateRequested = "account.create.requested"
	KindCreditRequested        = "transaction.credit.requested"
	KindDebitRequested         = "transaction.debit.requested"
)
