package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PricedLineItems counts line items run through the pricing engine by outcome.
	PricedLineItems *prometheus.CounterVec
	// OrderMutations counts order write operations by operation and outcome.
	OrderMutations *prometheus.CounterVec
	// OrderReconciliations counts reconciliation checks by result (in_sync, drift, error).
	OrderReconciliations *prometheus.CounterVec
	// ProductCacheLookups counts product cache reads by result (hit, miss, error).
	ProductCacheLookups *prometheus.CounterVec
	// ReconcileSweepDuration records how long a reconciliation sweep takes in milliseconds.
	ReconcileSweepDuration prometheus.Histogram
	// BreakerState reports each circuit breaker's state (0 closed, 1 open, 2 half-open).
	BreakerState *prometheus.GaugeVec
	// BreakerTransitions counts circuit breaker state changes.
	BreakerTransitions *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PricedLineItems = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_line_items_total",
			Help:      "Count of priced line items by outcome.",
		}, []string{"result"}))
		OrderMutations = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_mutations_total",
			Help:      "Count of order mutations by operation and outcome.",
		}, []string{"op", "result"}))
		OrderReconciliations = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_reconciliations_total",
			Help:      "Count of order total reconciliation checks by result.",
		}, []string{"result"}))
		ProductCacheLookups = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "product_cache_lookups_total",
			Help:      "Count of product cache lookups by result.",
		}, []string{"result"}))
		ReconcileSweepDuration = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_sweep_duration_ms",
			Help:      "Duration of reconciliation sweeps in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}))
		BreakerState = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state: 0=closed, 1=open, 2=half-open.",
		}, []string{"target"}))
		BreakerTransitions = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transitions_total",
			Help:      "Count of circuit breaker state transitions.",
		}, []string{"target", "from", "to"}))
	})
}

// CountPricedLines records priced and rejected line items. No-op until metrics are registered.
func CountPricedLines(priced, rejected int) {
	if PricedLineItems == nil {
		return
	}
	if priced > 0 {
		PricedLineItems.WithLabelValues("priced").Add(float64(priced))
	}
	if rejected > 0 {
		PricedLineItems.WithLabelValues("rejected").Add(float64(rejected))
	}
}

// CountOrderMutation records the outcome of an order write.
func CountOrderMutation(op string, err error) {
	if OrderMutations == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	OrderMutations.WithLabelValues(op, result).Inc()
}

// CountReconciliation records a reconciliation result.
func CountReconciliation(result string) {
	if OrderReconciliations == nil {
		return
	}
	OrderReconciliations.WithLabelValues(result).Inc()
}

// CountProductCache records a product cache lookup result.
func CountProductCache(result string) {
	if ProductCacheLookups == nil {
		return
	}
	ProductCacheLookups.WithLabelValues(result).Inc()
}

// RecordBreakerState publishes a breaker's current state.
func RecordBreakerState(target string, state int) {
	if BreakerState == nil {
		return
	}
	BreakerState.WithLabelValues(target).Set(float64(state))
}

// CountBreakerTransition records one breaker state change.
func CountBreakerTransition(target, from, to string) {
	if BreakerTransitions == nil {
		return
	}
	BreakerTransitions.WithLabelValues(target, from, to).Inc()
}
