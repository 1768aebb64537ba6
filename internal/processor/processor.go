// Package processor applies the business rules around ledger mutation and
// emits a domain event for every attempt. A unit of work either commits the
// balance write and reports success, or aborts with no partial state
// observable; the per-account lock in the ledger guarantees the latter.
package processor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Edu-Lacalle/BankingSystemApplication/internal/domain"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/ledger"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/metrics"
)

// EventPublisher is the event-publication collaborator. Delivery is
// at-least-once; publish failures are logged and never fail the transaction.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event domain.TransactionEvent) error
	PublishNotificationEvent(ctx context.Context, event domain.NotificationEvent) error
}

// Processor executes create/credit/debit against the ledger.
type Processor struct {
	ledger *ledger.AccountLedger
	events EventPublisher
	log    *zap.Logger
}

func New(l *ledger.AccountLedger, events EventPublisher, log *zap.Logger) *Processor {
	return &Processor{ledger: l, events: events, log: log}
}

// CreateAccount opens an account and announces it.
func (p *Processor) CreateAccount(ctx context.Context, req domain.AccountCreationRequest) (*domain.Account, error) {
	account, err := p.ledger.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	metrics.AccountsCreated.Inc()
	p.publishNotification(ctx, domain.NotificationEvent{
		EventID:   uuid.NewString(),
		AccountID: account.ID,
		Type:      domain.EventAccountCreated,
		Message:   "account created",
		Timestamp: time.Now().UTC(),
	})
	return account, nil
}

// Credit adds funds. A credit never produces a business rejection; any error
// returned is a fault.
func (p *Processor) Credit(ctx context.Context, req domain.TransactionRequest) (domain.TransactionResult, error) {
	account, err := p.ledger.CreditLocked(ctx, req.AccountID, req.Amount)
	if err != nil {
		metrics.Transactions.WithLabelValues(string(domain.TypeCredit), "failed").Inc()
		p.publishTransaction(ctx, req, domain.TypeCredit, nil, false, err.Error())
		return domain.TransactionResult{}, err
	}

	metrics.Transactions.WithLabelValues(string(domain.TypeCredit), "completed").Inc()
	p.publishTransaction(ctx, req, domain.TypeCredit, account, true, "credit completed")
	return domain.TransactionResult{Status: domain.StatusCompleted, Message: "credit completed"}, nil
}

// Debit withdraws funds. Insufficient funds is a deterministic REJECTED
// result, not an error; anything else that goes wrong is a fault.
func (p *Processor) Debit(ctx context.Context, req domain.TransactionRequest) (domain.TransactionResult, error) {
	account, err := p.ledger.DebitLocked(ctx, req.AccountID, req.Amount)
	if err != nil {
		if domain.KindOf(err) == domain.KindBusinessRejection {
			metrics.Transactions.WithLabelValues(string(domain.TypeDebit), "rejected").Inc()
			p.publishTransaction(ctx, req, domain.TypeDebit, nil, false, "insufficient funds")
			return domain.TransactionResult{Status: domain.StatusRejected, Message: "insufficient funds"}, nil
		}
		metrics.Transactions.WithLabelValues(string(domain.TypeDebit), "failed").Inc()
		p.publishTransaction(ctx, req, domain.TypeDebit, nil, false, err.Error())
		return domain.TransactionResult{}, err
	}

	metrics.Transactions.WithLabelValues(string(domain.TypeDebit), "completed").Inc()
	p.publishTransaction(ctx, req, domain.TypeDebit, account, true, "debit completed")
	return domain.TransactionResult{Status: domain.StatusCompleted, Message: "debit completed"}, nil
}

// GetAccount is the read side.
func (p *Processor) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	return p.ledger.GetByID(ctx, accountID)
}

func (p *Processor) publishTransaction(ctx context.Context, req domain.TransactionRequest, txType domain.TransactionType, after *domain.Account, success bool, message string) {
	event := domain.TransactionEvent{
		EventID:   uuid.NewString(),
		AccountID: req.AccountID,
		Type:      txType,
		Amount:    req.Amount,
		Success:   success,
		Message:   message,
		Reference: req.Reference,
		Timestamp: time.Now().UTC(),
	}
	if after != nil {
		event.NewBalance = after.Balance
		if txType == domain.TypeCredit {
			event.PreviousBalance = after.Balance.Sub(req.Amount)
		} else {
			event.PreviousBalance = after.Balance.Add(req.Amount)
		}
	}
	if err := p.events.PublishTransactionEvent(ctx, event); err != nil {
		p.log.Error("failed to publish transaction event",
			zap.String("accountId", req.AccountID),
			zap.String("type", string(txType)),
			zap.Error(err))
	}
}

func (p *Processor) publishNotification(ctx context.Context, event domain.NotificationEvent) {
	if err := p.events.PublishNotificationEvent(ctx, event); err != nil {
		p.log.Error("failed to publish notification event",
			zap.String("accountId", event.AccountID),
			zap.Error(err))
	}
}
