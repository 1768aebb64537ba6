// Package metrics exposes the service's Prometheus instruments.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AccountsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "banking_accounts_created_total",
		Help: "Accounts successfully created.",
	})

	Transactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "banking_transactions_total",
		Help: "Credit/debit operations by type and outcome.",
	}, []string{"type", "status"})

	TransfersInitiated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "banking_transfers_initiated_total",
		Help: "Transfer sagas started.",
	})

	TransfersCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "banking_transfers_completed_total",
		Help: "Transfer sagas finished with every step successful.",
	})

	TransfersFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "banking_transfers_failed_total",
		Help: "Transfer sagas that failed before any funds moved.",
	})

	TransfersCompensated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "banking_transfers_compensated_total",
		Help: "Transfer sagas rolled back by a compensating credit.",
	})

	// CompensationFailures is the alert signal for sagas that left an account
	// short with no automatic recovery path. Any increase here needs an
	// operator.
	CompensationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "banking_transfer_compensation_failures_total",
		Help: "Transfer compensations that failed; manual reconciliation required.",
	})

	AsyncRequestsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "banking_async_requests_accepted_total",
		Help: "Mutating requests routed to the asynchronous path.",
	}, []string{"operation"})

	RoutingModeAsync = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "banking_routing_mode_async",
		Help: "1 while the router is shedding to the async path, 0 otherwise.",
	})

	InFlightRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "banking_inflight_requests",
		Help: "Synchronous requests currently executing.",
	})

	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "banking_circuit_breaker_state",
		Help: "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
	}, []string{"name"})

	ThrottledRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "banking_throttled_requests_total",
		Help: "Requests rejected by the rate limiter.",
	})
)

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
