package gateway

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Edu-Lacalle/BankingSystemApplication/internal/domain"
)

type fakeSync struct {
	credits  int
	creditFn func(ctx context.Context, req domain.TransactionRequest) (domain.TransactionResult, error)
}

func (f *fakeSync) CreateAccount(_ context.Context, req domain.AccountCreationRequest) (*domain.Account, error) {
	return &domain.Account{ID: "acc-sync", Name: req.Name}, nil
}

func (f *fakeSync) Credit(ctx context.Context, req domain.TransactionRequest) (domain.TransactionResult, error) {
	f.credits++
	if f.creditFn != nil {
		return f.creditFn(ctx, req)
	}
	return domain.TransactionResult{Status: domain.StatusCompleted}, nil
}

func (f *fakeSync) Debit(context.Context, domain.TransactionRequest) (domain.TransactionResult, error) {
	return domain.TransactionResult{Status: domain.StatusCompleted}, nil
}

type fakeDispatcher struct {
	accounts     int
	transactions []domain.TransactionType
	err          error
}

func (f *fakeDispatcher) DispatchAccountCreation(context.Context, string, domain.AccountCreationRequest) error {
	f.accounts++
	return f.err
}

func (f *fakeDispatcher) DispatchTransaction(_ context.Context, _ string, kind domain.TransactionType, _ domain.TransactionRequest) error {
	f.transactions = append(f.transactions, kind)
	return f.err
}

func newTestMonitor(util float64) *LoadMonitor {
	m := NewLoadMonitor(DefaultMonitorConfig())
	m.utilFn = func() float64 { return util }
	return m
}

func newTestRouter(util float64, sync SyncExecutor, dispatch AsyncDispatcher) *Router {
	return NewRouter(DefaultRouterConfig(), newTestMonitor(util), sync, dispatch, zap.NewNop())
}

func txReq() domain.TransactionRequest {
	return domain.TransactionRequest{AccountID: "acc-1", Amount: decimal.NewFromInt(5)}
}

func TestRouterSyncUnderNormalLoad(t *testing.T) {
	sync := &fakeSync{}
	dispatch := &fakeDispatcher{}
	r := newTestRouter(10, sync, dispatch)

	decision, err := r.Credit(context.Background(), txReq())
	require.NoError(t, err)
	assert.Equal(t, ModeSync, decision.Mode)
	assert.Equal(t, domain.StatusCompleted, decision.Result.Status)
	assert.True(t, strings.HasPrefix(decision.RequestID, "req_"))
	assert.Equal(t, 1, sync.credits)
	assert.Empty(t, dispatch.transactions)
}

func TestRouterAsyncWhenUtilizationHigh(t *testing.T) {
	sync := &fakeSync{}
	dispatch := &fakeDispatcher{}
	r := newTestRouter(85, sync, dispatch)

	decision, err := r.Credit(context.Background(), txReq())
	require.NoError(t, err)
	assert.Equal(t, ModeAsync, decision.Mode)
	assert.NotEmpty(t, decision.RequestID)
	assert.Equal(t, 0, sync.credits)
	require.Len(t, dispatch.transactions, 1)
	assert.Equal(t, domain.TypeCredit, dispatch.transactions[0])
}

func TestRouterAsyncWhenConnectionsHigh(t *testing.T) {
	sync := &fakeSync{}
	dispatch := &fakeDispatcher{}
	monitor := newTestMonitor(10)
	r := NewRouter(DefaultRouterConfig(), monitor, sync, dispatch, zap.NewNop())

	var dones []func()
	for i := int64(0); i <= monitor.cfg.ConnectionThreshold; i++ {
		dones = append(dones, monitor.RequestStarted())
	}
	defer func() {
		for _, done := range dones {
			done()
		}
	}()

	decision, err := r.CreateAccount(context.Background(), domain.AccountCreationRequest{Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, ModeAsync, decision.Mode)
	assert.Nil(t, decision.Account)
	assert.Equal(t, 1, dispatch.accounts)
}

func TestRouterDispatchFailureIsTransient(t *testing.T) {
	dispatch := &fakeDispatcher{err: domain.Transient("stream unavailable", nil)}
	r := newTestRouter(85, &fakeSync{}, dispatch)

	_, err := r.Credit(context.Background(), txReq())
	require.Error(t, err)
	assert.Equal(t, domain.KindTransient, domain.KindOf(err))
}

func TestRouterSyncDeadline(t *testing.T) {
	sync := &fakeSync{creditFn: func(ctx context.Context, req domain.TransactionRequest) (domain.TransactionResult, error) {
		<-ctx.Done()
		return domain.TransactionResult{}, ctx.Err()
	}}
	r := newTestRouter(10, sync, &fakeDispatcher{})
	r.cfg.SyncTimeout = 10 * time.Millisecond

	_, err := r.Credit(context.Background(), txReq())
	require.Error(t, err)
	assert.Equal(t, domain.KindTimeout, domain.KindOf(err))
}

func TestRouterStatus(t *testing.T) {
	r := newTestRouter(85, &fakeSync{}, &fakeDispatcher{})
	status := r.Status()
	assert.Equal(t, ModeAsync, status.Mode)
	assert.Equal(t, 85.0, status.Utilization)

	r = newTestRouter(10, &fakeSync{}, &fakeDispatcher{})
	status = r.Status()
	assert.Equal(t, ModeSync, status.Mode)
}

func TestMonitorCachesUtilizationSample(t *testing.T) {
	samples := 0
	m := NewLoadMonitor(DefaultMonitorConfig())
	m.utilFn = func() float64 { samples++; return 42 }

	now := time.Now()
	m.nowFn = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		m.Utilization()
	}
	assert.Equal(t, 1, samples)
	assert.Equal(t, 42.0, m.Utilization())

	// A second sample is taken once the interval elapses.
	m.nowFn = func() time.Time { return now.Add(2 * time.Second) }
	m.Utilization()
	assert.Equal(t, 2, samples)
}
