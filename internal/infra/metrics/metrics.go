// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		allocationsTotal,
		purchasesTotal,
		purchaseRollbacksTotal,
		credentialsImportedTotal,
	)
}

var (
	allocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allocations_total",
			Help: "Credential claim attempts by outcome (claimed/contended/out_of_stock).",
		},
		[]string{"result"},
	)

	purchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchases_total",
			Help: "Purchase requests by outcome.",
		},
		[]string{"result"}, // 'ok', 'unknown_plan', 'out_of_stock', 'persistence_failure', ...
	)

	purchaseRollbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "purchase_rollbacks_total",
			Help: "Claims released because the purchase could not be made durable.",
		},
	)

	credentialsImportedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "credentials_imported_total",
			Help: "Credentials added to the pool by bulk ingestion.",
		},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// -------- Allocation helpers --------

func IncAllocation(result string) {
	allocationsTotal.WithLabelValues(norm(result)).Inc()
}

// -------- Purchase helpers --------

func IncPurchase(result string) {
	purchasesTotal.WithLabelValues(norm(result)).Inc()
}

func IncPurchaseRollback() {
	purchaseRollbacksTotal.Inc()
}

func AddCredentialsImported(n int) {
	if n > 0 {
		credentialsImportedTotal.Add(float64(n))
	}
}
