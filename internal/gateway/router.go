package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Edu-Lacalle/BankingSystemApplication/internal/domain"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/metrics"
)

// Processing modes reported to callers and metrics.
const (
	ModeSync  = "SYNC"
	ModeAsync = "ASYNC"
)

// SyncExecutor handles a request inline. In production this is the
// resilience envelope.
type SyncExecutor interface {
	CreateAccount(ctx context.Context, req domain.AccountCreationRequest) (*domain.Account, error)
	Credit(ctx context.Context, req domain.TransactionRequest) (domain.TransactionResult, error)
	Debit(ctx context.Context, req domain.TransactionRequest) (domain.TransactionResult, error)
}

// AsyncDispatcher enqueues a request for background processing.
type AsyncDispatcher interface {
	DispatchAccountCreation(ctx context.Context, requestID string, req domain.AccountCreationRequest) error
	DispatchTransaction(ctx context.Context, requestID string, kind domain.TransactionType, req domain.TransactionRequest) error
}

// AccountDecision is the routing outcome for an account creation request.
type AccountDecision struct {
	Mode      string
	RequestID string
	Account   *domain.Account
}

// TransactionDecision is the routing outcome for a balance mutation.
type TransactionDecision struct {
	Mode      string
	RequestID string
	Result    domain.TransactionResult
}

type RouterConfig struct {
	// SyncTimeout bounds inline processing as observed by the caller. It
	// sits outside the envelope's own per-attempt timeouts.
	SyncTimeout time.Duration
}

func DefaultRouterConfig() RouterConfig {
	return RouterConfig{SyncTimeout: 10 * time.Second}
}

// Router decides per request whether to process inline or enqueue, based
// on the monitor's overload signal.
type Router struct {
	cfg      RouterConfig
	monitor  *LoadMonitor
	sync     SyncExecutor
	dispatch AsyncDispatcher
	log      *zap.Logger
}

func NewRouter(cfg RouterConfig, monitor *LoadMonitor, sync SyncExecutor, dispatch AsyncDispatcher, log *zap.Logger) *Router {
	return &Router{cfg: cfg, monitor: monitor, sync: sync, dispatch: dispatch, log: log}
}

// LoadStatus is the operational snapshot exposed on the status endpoint.
type LoadStatus struct {
	Mode        string  `json:"mode"`
	Utilization float64 `json:"cpuUsage"`
	InFlight    int64   `json:"activeConnections"`
}

func (r *Router) Status() LoadStatus {
	mode := ModeSync
	async := 0.0
	if r.monitor.Overloaded() {
		mode = ModeAsync
		async = 1
	}
	metrics.RoutingModeAsync.Set(async)
	return LoadStatus{
		Mode:        mode,
		Utilization: r.monitor.Utilization(),
		InFlight:    r.monitor.InFlight(),
	}
}

// CreateAccount routes an account creation request.
func (r *Router) CreateAccount(ctx context.Context, req domain.AccountCreationRequest) (AccountDecision, error) {
	requestID := newRequestID()
	done := r.monitor.RequestStarted()
	defer done()

	if r.monitor.Overloaded() {
		if err := r.dispatch.DispatchAccountCreation(ctx, requestID, req); err != nil {
			return AccountDecision{}, domain.Transient("failed to enqueue account creation", err)
		}
		metrics.AsyncRequestsAccepted.WithLabelValues("account-create").Inc()
		r.log.Info("routed async", zap.String("operation", "account-create"), zap.String("requestId", requestID))
		return AccountDecision{Mode: ModeAsync, RequestID: requestID}, nil
	}

	account, err := withDeadline(ctx, r.cfg.SyncTimeout, func(ctx context.Context) (*domain.Account, error) {
		return r.sync.CreateAccount(ctx, req)
	})
	if err != nil {
		return AccountDecision{}, err
	}
	return AccountDecision{Mode: ModeSync, RequestID: requestID, Account: account}, nil
}

// Credit routes a credit request.
func (r *Router) Credit(ctx context.Context, req domain.TransactionRequest) (TransactionDecision, error) {
	return r.transaction(ctx, domain.TypeCredit, req, r.sync.Credit)
}

// Debit routes a debit request.
func (r *Router) Debit(ctx context.Context, req domain.TransactionRequest) (TransactionDecision, error) {
	return r.transaction(ctx, domain.TypeDebit, req, r.sync.Debit)
}

func (r *Router) transaction(ctx context.Context, kind domain.TransactionType, req domain.TransactionRequest, fn func(context.Context, domain.TransactionRequest) (domain.TransactionResult, error)) (TransactionDecision, error) {
	requestID := newRequestID()
	done := r.monitor.RequestStarted()
	defer done()

	if r.monitor.Overloaded() {
		if err := r.dispatch.DispatchTransaction(ctx, requestID, kind, req); err != nil {
			return TransactionDecision{}, domain.Transient("failed to enqueue transaction", err)
		}
		metrics.AsyncRequestsAccepted.WithLabelValues(strings.ToLower(string(kind))).Inc()
		r.log.Info("routed async",
			zap.String("operation", string(kind)),
			zap.String("requestId", requestID),
			zap.String("accountId", req.AccountID))
		return TransactionDecision{Mode: ModeAsync, RequestID: requestID}, nil
	}

	result, err := withDeadline(ctx, r.cfg.SyncTimeout, func(ctx context.Context) (domain.TransactionResult, error) {
		return fn(ctx, req)
	})
	if err != nil {
		return TransactionDecision{}, err
	}
	return TransactionDecision{Mode: ModeSync, RequestID: requestID, Result: result}, nil
}

// withDeadline bounds the caller-observed latency of inline processing.
// On expiry the caller gets a timeout while the inner operation keeps
// running, so a request reported as timed out can still commit.
func withDeadline[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	inner, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	ch := make(chan outcome, 1)
	go func() {
		v, err := fn(inner)
		ch <- outcome{value: v, err: err}
	}()
	select {
	case out := <-ch:
		return out.value, out.err
	case <-inner.Done():
		var zero T
		return zero, domain.Timeout("request processing deadline exceeded", inner.Err())
	}
}

func newRequestID() string {
	return "req_" + uuid.NewString()[:8]
}
