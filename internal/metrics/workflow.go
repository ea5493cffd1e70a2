// Package metrics holds the panel's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wppanel"

// Workflow outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var workflowDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "workflow_duration_seconds",
		Help:      "Duration of site workflows such as create, update, backup and restore",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
	},
	[]string{"workflow", "outcome"},
)

// ObserveWorkflow records how long a workflow that started at start took.
// Call it deferred with a pointer to the workflow's named error result.
func ObserveWorkflow(workflow string, start time.Time, err *error) {
	outcome := OutcomeSuccess
	if err != nil && *err != nil {
		outcome = OutcomeFailure
	}
	workflowDuration.WithLabelValues(workflow, outcome).Observe(time.Since(start).Seconds())
}
