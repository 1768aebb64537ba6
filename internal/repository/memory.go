package repository

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Edu-Lacalle/BankingSystemApplication/internal/domain"
)

// MemoryStore is an in-memory AccountStore for tests and local development.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]*domain.Account
	byNational map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]*domain.Account),
		byNational: make(map[string]string),
	}
}

func (s *MemoryStore) Insert(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byNational[account.NationalID]; exists {
		return domain.Duplicate("national id already registered")
	}
	copied := *account
	s.byID[account.ID] = &copied
	s.byNational[account.NationalID] = account.ID
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.byID[id]
	if !ok {
		return nil, domain.NotFound("account not found")
	}
	copied := *account
	return &copied, nil
}

func (s *MemoryStore) FindByNationalID(ctx context.Context, nationalID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byNational[nationalID]
	if !ok {
		return nil, domain.NotFound("account not found")
	}
	copied := *s.byID[id]
	return &copied, nil
}

func (s *MemoryStore) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal, revision int64, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.byID[id]
	if !ok {
		return domain.NotFound("account not found")
	}
	account.Balance = balance
	account.Revision = revision
	account.UpdatedAt = updatedAt
	return nil
}
