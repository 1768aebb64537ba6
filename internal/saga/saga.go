package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Edu-Lacalle/BankingSystemApplication/internal/domain"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/metrics"
)

// Status values for the transfer as a whole.
const (
	StatusStarted            = "STARTED"
	StatusInProgress         = "IN_PROGRESS"
	StatusCompleted          = "COMPLETED"
	StatusFailed             = "FAILED"
	StatusCompensating       = "COMPENSATING"
	StatusCompensated        = "COMPENSATED"
	StatusCompensationFailed = "COMPENSATION_FAILED"
)

// TransferRequest describes a two-account money movement.
type TransferRequest struct {
	FromAccountID string          `json:"fromAccountId" binding:"required"`
	ToAccountID   string          `json:"toAccountId" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
}

// StepOutcome records one saga step. Timestamp is zero when the step was
// never attempted.
type StepOutcome struct {
	Attempted  bool                     `json:"attempted"`
	Successful bool                     `json:"successful"`
	Result     domain.TransactionResult `json:"result,omitempty"`
	Timestamp  time.Time                `json:"timestamp,omitempty"`
}

// Result is the full audit record of a transfer attempt. It is always
// returned to the caller, whatever the outcome.
type Result struct {
	SagaID        string          `json:"sagaId"`
	FromAccountID string          `json:"fromAccountId"`
	ToAccountID   string          `json:"toAccountId"`
	Amount        decimal.Decimal `json:"amount"`
	StartedAt     time.Time       `json:"startedAt"`
	FinishedAt    time.Time       `json:"finishedAt"`
	OverallStatus string          `json:"status"`
	Debit         StepOutcome     `json:"debit"`
	Credit        StepOutcome     `json:"credit"`
	Compensation  StepOutcome     `json:"compensation"`
	ErrorMessage  string          `json:"errorMessage,omitempty"`
}

// TransferExecutor is the guarded transaction surface the saga drives.
// In production this is the resilience envelope.
type TransferExecutor interface {
	Credit(ctx context.Context, req domain.TransactionRequest) (domain.TransactionResult, error)
	Debit(ctx context.Context, req domain.TransactionRequest) (domain.TransactionResult, error)
}

// Coordinator runs transfers as a debit-then-credit saga with compensation.
// State lives in the Result; there is no durable saga log, so a process
// crash between debit and credit loses the in-flight transfer.
// TODO: persist step progress in the accounts database so a restarted
// process can resume or compensate interrupted transfers.
type Coordinator struct {
	exec TransferExecutor
	log  *zap.Logger
	now  func() time.Time
}

func NewCoordinator(exec TransferExecutor, log *zap.Logger) *Coordinator {
	return &Coordinator{exec: exec, log: log, now: time.Now}
}

// Transfer debits the source account and credits the destination. If the
// credit fails after a successful debit, the debited amount is credited
// back to the source. Transfer always returns a non-nil Result; the error
// return is reserved for request-level problems detected before any step
// runs.
func (c *Coordinator) Transfer(ctx context.Context, req TransferRequest) (*Result, error) {
	if req.FromAccountID == req.ToAccountID {
		return nil, domain.Validation("source and destination accounts must differ")
	}
	if !req.Amount.IsPositive() {
		return nil, domain.Validation("transfer amount must be positive")
	}

	sagaID := "saga-" + uuid.NewString()
	result := &Result{
		SagaID:        sagaID,
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
		StartedAt:     c.now(),
		OverallStatus: StatusStarted,
	}
	metrics.TransfersInitiated.Inc()
	c.log.Info("transfer saga started",
		zap.String("sagaId", sagaID),
		zap.String("correlationId", domain.CorrelationIDFromContext(ctx)),
		zap.String("fromAccountId", req.FromAccountID),
		zap.String("toAccountId", req.ToAccountID),
		zap.String("amount", req.Amount.String()))

	c.runDebit(ctx, req, result)
	if result.OverallStatus == StatusInProgress {
		c.runCredit(ctx, req, result)
	}
	if result.OverallStatus == StatusCompensating {
		c.runCompensation(ctx, req, result)
	}

	result.FinishedAt = c.now()
	c.log.Info("transfer saga finished",
		zap.String("sagaId", sagaID),
		zap.String("correlationId", domain.CorrelationIDFromContext(ctx)),
		zap.String("status", result.OverallStatus))
	return result, nil
}

func (c *Coordinator) runDebit(ctx context.Context, req TransferRequest, result *Result) {
	outcome, err := c.exec.Debit(ctx, domain.TransactionRequest{
		AccountID: req.FromAccountID,
		Amount:    req.Amount,
		Reference: result.SagaID + ":debit",
	})
	result.Debit = StepOutcome{
		Attempted:  true,
		Successful: err == nil && outcome.Status == domain.StatusCompleted,
		Result:     outcome,
		Timestamp:  c.now(),
	}
	switch {
	case err != nil:
		result.OverallStatus = StatusFailed
		result.ErrorMessage = fmt.Sprintf("debit failed: %v", err)
		metrics.TransfersFailed.Inc()
	case outcome.Status != domain.StatusCompleted:
		result.OverallStatus = StatusFailed
		result.ErrorMessage = "debit rejected: " + outcome.Message
		metrics.TransfersFailed.Inc()
	default:
		result.OverallStatus = StatusInProgress
	}
}

func (c *Coordinator) runCredit(ctx context.Context, req TransferRequest, result *Result) {
	outcome, err := c.exec.Credit(ctx, domain.TransactionRequest{
		AccountID: req.ToAccountID,
		Amount:    req.Amount,
		Reference: result.SagaID + ":credit",
	})
	result.Credit = StepOutcome{
		Attempted:  true,
		Successful: err == nil && outcome.Status == domain.StatusCompleted,
		Result:     outcome,
		Timestamp:  c.now(),
	}
	if result.Credit.Successful {
		result.OverallStatus = StatusCompleted
		metrics.TransfersCompleted.Inc()
		return
	}
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("credit failed: %v", err)
	} else {
		result.ErrorMessage = "credit rejected: " + outcome.Message
	}
	result.OverallStatus = StatusCompensating
	c.log.Warn("credit step failed, compensating",
		zap.String("sagaId", result.SagaID),
		zap.String("reason", result.ErrorMessage))
}

// runCompensation returns the debited amount to the source account. A
// failed compensation means money left the source and reached nobody,
// which is the one state that needs a human.
func (c *Coordinator) runCompensation(ctx context.Context, req TransferRequest, result *Result) {
	outcome, err := c.exec.Credit(ctx, domain.TransactionRequest{
		AccountID: req.FromAccountID,
		Amount:    req.Amount,
		Reference: result.SagaID + ":compensation",
	})
	result.Compensation = StepOutcome{
		Attempted:  true,
		Successful: err == nil && outcome.Status == domain.StatusCompleted,
		Result:     outcome,
		Timestamp:  c.now(),
	}
	if result.Compensation.Successful {
		result.OverallStatus = StatusCompensated
		metrics.TransfersCompensated.Inc()
		return
	}
	result.OverallStatus = StatusCompensationFailed
	if err != nil {
		result.ErrorMessage += "; compensation failed: " + err.Error()
	} else {
		result.ErrorMessage += "; compensation rejected: " + outcome.Message
	}
	metrics.CompensationFailures.Inc()
	c.log.Error("transfer compensation failed, manual intervention required",
		zap.String("sagaId", result.SagaID),
		zap.String("fromAccountId", req.FromAccountID),
		zap.String("amount", req.Amount.String()),
		zap.String("detail", result.ErrorMessage))
}
