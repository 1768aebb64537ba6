package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Edu-Lacalle/BankingSystemApplication/internal/domain"
)

const uniqueViolation = "23505"

// PostgresStore persists accounts in PostgreSQL (source of truth).
// Row-level write serialization is provided by the ledger's per-account lock;
// the store itself only guards the national-id uniqueness constraint.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, name, national_id, birth_date, balance, email, phone, revision, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		account.ID, account.Name, account.NationalID, account.BirthDate,
		account.Balance, nullString(account.Email), nullString(account.Phone),
		account.Revision, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.Duplicate("national id already registered")
		}
		return domain.Transient("failed to insert account", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return s.findOne(ctx, "id = $1", id)
}

func (s *PostgresStore) FindByNationalID(ctx context.Context, nationalID string) (*domain.Account, error) {
	return s.findOne(ctx, "national_id = $1", nationalID)
}

func (s *PostgresStore) findOne(ctx context.Context, where string, arg any) (*domain.Account, error) {
	query := fmt.Sprintf(`
		SELECT id, name, national_id, birth_date, balance, email, phone, revision, created_at, updated_at
		FROM accounts
		WHERE %s
	`, where)

	var (
		account      domain.Account
		email, phone sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID, &account.Name, &account.NationalID, &account.BirthDate,
		&account.Balance, &email, &phone,
		&account.Revision, &account.CreatedAt, &account.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.NotFound("account not found")
	}
	if err != nil {
		return nil, domain.Transient("failed to query account", err)
	}
	account.Email = email.String
	account.Phone = phone.String
	return &account, nil
}

func (s *PostgresStore) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal, revision int64, updatedAt time.Time) error {
	query := `
		UPDATE accounts
		SET balance = $2, revision = $3, updated_at = $4
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, id, balance, revision, updatedAt)
	if err != nil {
		return domain.Transient("failed to update balance", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return domain.Transient("failed to check rows affected", err)
	}
	if rows == 0 {
		return domain.NotFound("account not found")
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
