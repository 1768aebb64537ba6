// Package repository provides the persistence layer for accounts. The ledger
// is the only writer; balance serialization happens above this layer.
package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Edu-Lacalle/BankingSystemApplication/internal/domain"
)

// AccountStore is the persistence contract the ledger requires. Insert must
// fail with a DuplicateResource error when the national id is already stored.
type AccountStore interface {
	Insert(ctx context.Context, account *domain.Account) error
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByNationalID(ctx context.Context, nationalID string) (*domain.Account, error)
	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal, revision int64, updatedAt time.Time) error
}
