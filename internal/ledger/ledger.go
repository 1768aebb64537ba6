// Package ledger owns account state and serializes balance mutations with a
// per-account exclusive lock. The lock covers exactly one read-modify-write
// on one account; it is never held across two accounts, which makes
// cross-account deadlock impossible. Two-account transfers are therefore
// non-atomic; the transfer saga deals with that.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Edu-Lacalle/BankingSystemApplication/internal/domain"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/ident"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/repository"
)

// AccountLedger enforces the account invariants: balance never negative,
// national id unique, holder at least 18 at creation.
type AccountLedger struct {
	store repository.AccountStore
	locks *keyedMutex
	log   *zap.Logger
	now   func() time.Time
}

func New(store repository.AccountStore, log *zap.Logger) *AccountLedger {
	return &AccountLedger{
		store: store,
		locks: newKeyedMutex(),
		log:   log,
		now:   time.Now,
	}
}

// Create opens a new account with a zero balance.
func (l *AccountLedger) Create(ctx context.Context, req domain.AccountCreationRequest) (*domain.Account, error) {
	now := l.now().UTC()
	if !ident.IsNationalID(req.NationalID) {
		return nil, domain.Validation("national id must be 11 digits")
	}
	if domain.Age(req.BirthDate, now) < domain.MinimumAccountAge {
		return nil, domain.Validation("minimum age of 18 years not met")
	}

	if _, err := l.store.FindByNationalID(ctx, req.NationalID); err == nil {
		return nil, domain.Duplicate("national id already registered")
	} else if domain.KindOf(err) != domain.KindNotFound {
		return nil, err
	}

	account := &domain.Account{
		ID:         ident.NewAccountID(),
		Name:       req.Name,
		NationalID: req.NationalID,
		BirthDate:  req.BirthDate,
		Balance:    decimal.Zero,
		Email:      req.Email,
		Phone:      req.Phone,
		Revision:   1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	// The store enforces uniqueness again; two concurrent creations with the
	// same national id race past the lookup above and one loses on insert.
	if err := l.store.Insert(ctx, account); err != nil {
		return nil, err
	}

	l.log.Info("account created",
		zap.String("accountId", account.ID),
		zap.String("nationalId", domain.MaskNationalID(account.NationalID)))
	return account, nil
}

// CreditLocked adds amount to the account balance under the account lock.
func (l *AccountLedger) CreditLocked(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.Account, error) {
	unlock := l.locks.Lock(accountID)
	defer unlock()

	account, err := l.store.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return l.write(ctx, account, account.Balance.Add(amount))
}

// DebitLocked subtracts amount from the account balance under the account
// lock. A debit that would drive the balance negative is a business
// rejection, not a fault; the balance is left untouched.
func (l *AccountLedger) DebitLocked(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.Account, error) {
	unlock := l.locks.Lock(accountID)
	defer unlock()

	account, err := l.store.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	newBalance := account.Balance.Sub(amount)
	if newBalance.IsNegative() {
		l.log.Warn("debit rejected: insufficient funds",
			zap.String("accountId", accountID),
			zap.String("balance", account.Balance.String()),
			zap.String("requested", amount.String()))
		return nil, domain.BusinessRejection("insufficient funds")
	}
	return l.write(ctx, account, newBalance)
}

// GetByID returns the current account state without locking.
func (l *AccountLedger) GetByID(ctx context.Context, accountID string) (*domain.Account, error) {
	return l.store.FindByID(ctx, accountID)
}

func (l *AccountLedger) write(ctx context.Context, account *domain.Account, balance decimal.Decimal) (*domain.Account, error) {
	account.Balance = balance
	account.Revision++
	account.UpdatedAt = l.now().UTC()
	if err := l.store.UpdateBalance(ctx, account.ID, account.Balance, account.Revision, account.UpdatedAt); err != nil {
		return nil, err
	}
	return account, nil
}
