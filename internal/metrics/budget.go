package metrics

import "github.com/prometheus/client_golang/prometheus"

// Budget accounting Prometheus metrics.
var (
	BudgetChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "budgetd",
			Name:      "budget_checks_total",
			Help:      "Total exceeds-budget verdicts",
		},
		[]string{"config", "verdict"}, // "exceeded" / "within"
	)

	SpendRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "budgetd",
			Name:      "spend_records_total",
			Help:      "Total spend record attempts",
		},
		[]string{"config", "status"}, // "ok" / "invalid" / "error"
	)

	SoftLimitHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "budgetd",
			Name:      "soft_limit_hits_total",
			Help:      "Spend records that landed at or above the soft limit",
		},
		[]string{"config"},
	)

	BudgetReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "budgetd",
			Name:      "budget_reloads_total",
			Help:      "Budgets file reloads by outcome",
		},
		[]string{"status"}, // "ok" / "error"
	)
)

var budgetMetricsRegistered bool

// RegisterBudgetMetrics registers budget metrics with the default
// registry. Explicit (no init()) so embedded users can opt out.
func RegisterBudgetMetrics() {
	if budgetMetricsRegistered {
		return
	}
	prometheus.MustRegister(BudgetChecksTotal)
	prometheus.MustRegister(SpendRecordsTotal)
	prometheus.MustRegister(SoftLimitHitsTotal)
	prometheus.MustRegister(BudgetReloadsTotal)
	budgetMetricsRegistered = true
}
