package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(credentialPoolSize) }

var credentialPoolSize = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "credential_pool_size",
		Help: "Current number of credentials per pool by status.",
	},
	[]string{"location", "plan_type", "status"}, // status: 'available', 'used'
)

// SetPoolSize publishes the counts for one (location, plan type) pool.
func SetPoolSize(location, planType string, available, used int) {
	credentialPoolSize.WithLabelValues(location, norm(planType), "available").Set(float64(available))
	credentialPoolSize.WithLabelValues(location, norm(planType), "used").Set(float64(used))
}

// ResetPoolSize drops every series so pools that disappeared stop reporting.
func ResetPoolSize() {
	credentialPoolSize.Reset()
}
