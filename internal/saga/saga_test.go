package saga

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Edu-Lacalle/BankingSystemApplication/internal/domain"
)

type scriptedExecutor struct {
	debits  []domain.TransactionRequest
	credits []domain.TransactionRequest

	debitFn  func(req domain.TransactionRequest) (domain.TransactionResult, error)
	creditFn func(req domain.TransactionRequest) (domain.TransactionResult, error)
}

func (s *scriptedExecutor) Debit(_ context.Context, req domain.TransactionRequest) (domain.TransactionResult, error) {
	s.debits = append(s.debits, req)
	if s.debitFn != nil {
		return s.debitFn(req)
	}
	return domain.TransactionResult{Status: domain.StatusCompleted}, nil
}

func (s *scriptedExecutor) Credit(_ context.Context, req domain.TransactionRequest) (domain.TransactionResult, error) {
	s.credits = append(s.credits, req)
	if s.creditFn != nil {
		return s.creditFn(req)
	}
	return domain.TransactionResult{Status: domain.StatusCompleted}, nil
}

func transferReq() TransferRequest {
	return TransferRequest{
		FromAccountID: "acc-from",
		ToAccountID:   "acc-to",
		Amount:        decimal.NewFromInt(50),
	}
}

func TestTransferCompletes(t *testing.T) {
	exec := &scriptedExecutor{}
	c := NewCoordinator(exec, zap.NewNop())

	result, err := c.Transfer(context.Background(), transferReq())
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.OverallStatus)
	assert.True(t, result.Debit.Successful)
	assert.True(t, result.Credit.Successful)
	assert.False(t, result.Compensation.Attempted)

	require.Len(t, exec.debits, 1)
	require.Len(t, exec.credits, 1)
	assert.Equal(t, "acc-from", exec.debits[0].AccountID)
	assert.Equal(t, "acc-to", exec.credits[0].AccountID)
	assert.True(t, strings.HasSuffix(exec.debits[0].Reference, ":debit"))
	assert.True(t, strings.HasSuffix(exec.credits[0].Reference, ":credit"))
}

func TestTransferDebitRejectionFailsWithoutCredit(t *testing.T) {
	exec := &scriptedExecutor{debitFn: func(domain.TransactionRequest) (domain.TransactionResult, error) {
		return domain.TransactionResult{Status: domain.StatusRejected, Message: "insufficient funds"}, nil
	}}
	c := NewCoordinator(exec, zap.NewNop())

	result, err := c.Transfer(context.Background(), transferReq())
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, result.OverallStatus)
	assert.True(t, result.Debit.Attempted)
	assert.False(t, result.Debit.Successful)
	assert.False(t, result.Credit.Attempted)
	assert.False(t, result.Compensation.Attempted)
	assert.Contains(t, result.ErrorMessage, "insufficient funds")
	assert.Empty(t, exec.credits)
}

func TestTransferCreditFailureCompensatesSource(t *testing.T) {
	exec := &scriptedExecutor{creditFn: func(req domain.TransactionRequest) (domain.TransactionResult, error) {
		if strings.HasSuffix(req.Reference, ":credit") {
			return domain.TransactionResult{}, domain.NotFound("account not found")
		}
		return domain.TransactionResult{Status: domain.StatusCompleted}, nil
	}}
	c := NewCoordinator(exec, zap.NewNop())

	result, err := c.Transfer(context.Background(), transferReq())
	require.NoError(t, err)
	assert.Equal(t, StatusCompensated, result.OverallStatus)
	assert.True(t, result.Debit.Successful)
	assert.True(t, result.Credit.Attempted)
	assert.False(t, result.Credit.Successful)
	assert.True(t, result.Compensation.Successful)

	// The compensation credits the debited amount back to the source.
	require.Len(t, exec.credits, 2)
	comp := exec.credits[1]
	assert.Equal(t, "acc-from", comp.AccountID)
	assert.True(t, comp.Amount.Equal(decimal.NewFromInt(50)))
	assert.True(t, strings.HasSuffix(comp.Reference, ":compensation"))
}

func TestTransferCompensationFailureIsFlagged(t *testing.T) {
	exec := &scriptedExecutor{creditFn: func(req domain.TransactionRequest) (domain.TransactionResult, error) {
		return domain.TransactionResult{}, domain.Transient("backend down", nil)
	}}
	c := NewCoordinator(exec, zap.NewNop())

	result, err := c.Transfer(context.Background(), transferReq())
	require.NoError(t, err)
	assert.Equal(t, StatusCompensationFailed, result.OverallStatus)
	assert.True(t, result.Compensation.Attempted)
	assert.False(t, result.Compensation.Successful)
	assert.Contains(t, result.ErrorMessage, "compensation failed")
}

func TestTransferLogsCorrelationID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	c := NewCoordinator(&scriptedExecutor{}, zap.New(core))

	ctx := domain.WithCorrelationID(context.Background(), "cid-42")
	_, err := c.Transfer(ctx, transferReq())
	require.NoError(t, err)

	entries := logs.FilterMessage("transfer saga started").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "cid-42", entries[0].ContextMap()["correlationId"])
}

func TestTransferValidation(t *testing.T) {
	c := NewCoordinator(&scriptedExecutor{}, zap.NewNop())

	req := transferReq()
	req.ToAccountID = req.FromAccountID
	_, err := c.Transfer(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	req = transferReq()
	req.Amount = decimal.Zero
	_, err = c.Transfer(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}
