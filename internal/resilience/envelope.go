package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Edu-Lacalle/BankingSystemApplication/internal/domain"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/metrics"
)

// UnavailableMessage is the message carried by the transient error surfaced
// when the breaker is open or transient retries are exhausted.
const UnavailableMessage = "service temporarily unavailable, retry later"

// Executor is the underlying transaction surface the envelope shields.
type Executor interface {
	CreateAccount(ctx context.Context, req domain.AccountCreationRequest) (*domain.Account, error)
	Credit(ctx context.Context, req domain.TransactionRequest) (domain.TransactionResult, error)
	Debit(ctx context.Context, req domain.TransactionRequest) (domain.TransactionResult, error)
}

// Envelope wraps an Executor with the full policy chain: rate limit, then
// circuit breaker, then retry, then a per-attempt timeout around the call.
// The breaker observes each retried sequence as a single outcome.
type Envelope struct {
	exec    Executor
	cfg     Config
	limiter *rate.Limiter
	breaker *breaker
	log     *zap.Logger
}

func NewEnvelope(exec Executor, cfg Config, log *zap.Logger) *Envelope {
	quota := cfg.RateLimit
	if quota < 1 {
		quota = 1
	}
	return &Envelope{
		exec:    exec,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.RateWindow/time.Duration(quota)), quota),
		breaker: newBreaker("banking-service", cfg, log),
		log:     log,
	}
}

// CreateAccount runs account creation under the policy chain. Unavailability
// surfaces as a transient error carrying UnavailableMessage.
func (e *Envelope) CreateAccount(ctx context.Context, req domain.AccountCreationRequest) (*domain.Account, error) {
	account, err := execute(e, ctx, "create-account", e.cfg.CreationTimeout, func(ctx context.Context) (*domain.Account, error) {
		return e.exec.CreateAccount(ctx, req)
	})
	if err != nil && unavailable(err) {
		e.log.Warn("account creation degraded", zap.Error(err))
		return nil, domain.Transient(UnavailableMessage, err)
	}
	return account, err
}

func (e *Envelope) Credit(ctx context.Context, req domain.TransactionRequest) (domain.TransactionResult, error) {
	return e.transaction(ctx, "credit", req, e.exec.Credit)
}

func (e *Envelope) Debit(ctx context.Context, req domain.TransactionRequest) (domain.TransactionResult, error) {
	return e.transaction(ctx, "debit", req, e.exec.Debit)
}

func (e *Envelope) transaction(ctx context.Context, name string, req domain.TransactionRequest, fn func(context.Context, domain.TransactionRequest) (domain.TransactionResult, error)) (domain.TransactionResult, error) {
	result, err := execute(e, ctx, name, e.cfg.TransactionTimeout, func(ctx context.Context) (domain.TransactionResult, error) {
		return fn(ctx, req)
	})
	if err != nil && unavailable(err) {
		// The caller gets a retryable transient error, never a result
		// that looks like a business rejection: no balance was touched,
		// and queued requests must stay pending for redelivery.
		e.log.Warn("transaction degraded",
			zap.String("operation", name),
			zap.String("accountId", req.AccountID),
			zap.Error(err))
		return domain.TransactionResult{}, domain.Transient(UnavailableMessage, err)
	}
	return result, err
}

// State reports the breaker state for load-status reporting.
func (e *Envelope) State() string {
	return e.breaker.state().String()
}

func execute[T any](e *Envelope, ctx context.Context, name string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := e.acquire(ctx); err != nil {
		return zero, err
	}
	value, err := e.breaker.execute(func() (interface{}, error) {
		v, err := withRetry(ctx, e.cfg, e.log, name, func() (T, error) {
			return withTimeout(ctx, timeout, fn)
		})
		return v, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, domain.Transient("circuit breaker rejected the call", err)
		}
		return zero, err
	}
	typed, _ := value.(T)
	return typed, nil
}

// acquire blocks up to RateWait for a rate-limiter permit.
func (e *Envelope) acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, e.cfg.RateWait)
	defer cancel()
	if err := e.limiter.Wait(waitCtx); err != nil {
		metrics.ThrottledRequests.Inc()
		return domain.Throttled("rate limit exceeded, no permit within wait budget")
	}
	return nil
}

// unavailable reports whether an error should trigger the fallback path.
// Any fault reaching this point has already been through the retry loop.
func unavailable(err error) bool {
	return domain.IsFault(err)
}
