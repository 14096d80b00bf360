// Package metrics registers the prometheus instruments exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StockMovements counts ledger entries by kind (ENTRY/EXIT) and reason
	// (empty for ENTRY).
	StockMovements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "printlog_stock_movements_total",
		Help: "Stock ledger movements recorded, by kind and exit reason.",
	}, []string{"kind", "reason"})

	// OrderTransitions counts status moves by target status.
	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "printlog_order_transitions_total",
		Help: "Order status transitions applied, by target status.",
	}, []string{"to_status"})

	// UsageJobs tracks fire-and-forget usage recorder jobs by outcome.
	UsageJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "printlog_usage_jobs_total",
		Help: "Usage recorder jobs processed, by outcome (enqueued|sent|failed).",
	}, []string{"outcome"})
)
