package services

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels of appointment_store_operations_total.
const (
	resultOK       = "ok"
	resultError    = "error"
	resultNotFound = "not_found"
	// resultDegraded marks a read failure that was swallowed (fail-open).
	resultDegraded = "degraded"
)

// storeOps counts appointment store operations by operation and outcome.
// Both label sets are closed, so cardinality stays fixed.
var storeOps = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "appointment_store_operations_total",
		Help: "Appointment store operations by operation and outcome.",
	},
	[]string{"op", "result"},
)

func init() {
	prometheus.MustRegister(storeOps)
}

func observe(op, result string) {
	storeOps.WithLabelValues(op, result).Inc()
}
