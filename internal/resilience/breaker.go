package resilience

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/Edu-Lacalle/BankingSystemApplication/internal/domain"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/metrics"
)

// errSlowCall marks a call that succeeded but took longer than the slow-call
// threshold. It is reported to the breaker as a failure and stripped before
// the value is handed back to the caller.
var errSlowCall = errors.New("call exceeded slow-call threshold")

type breaker struct {
	cb   *gobreaker.CircuitBreaker
	slow time.Duration
}

func newBreaker(name string, cfg Config, log *zap.Logger) *breaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenProbes,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.OpenStateWait,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinCalls {
				return false
			}
			failureRate := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRate >= cfg.BreakerFailureRate
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			if errors.Is(err, errSlowCall) {
				return false
			}
			// Business rejections and client errors are not
			// infrastructure failures.
			return !domain.IsFault(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &breaker{cb: gobreaker.NewCircuitBreaker(settings), slow: cfg.SlowCallThreshold}
}

// execute runs fn under the breaker. Slow successes are accounted as
// failures but still deliver their value.
func (b *breaker) execute(fn func() (interface{}, error)) (interface{}, error) {
	value, err := b.cb.Execute(func() (interface{}, error) {
		start := time.Now()
		value, err := fn()
		if err == nil && b.slow > 0 && time.Since(start) > b.slow {
			return value, errSlowCall
		}
		return value, err
	})
	if errors.Is(err, errSlowCall) {
		return value, nil
	}
	return value, err
}

func (b *breaker) state() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
