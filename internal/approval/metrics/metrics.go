package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the approval workflow. Tracks
// transition counts and the duration of the approve critical path.
type Metrics struct {
	BlueprintsRequested prometheus.Counter
	BlueprintsReviewed  prometheus.Counter
	BlueprintsApproved  prometheus.Counter
	ApprovalsBlocked    prometheus.Counter
	ApproveDuration     prometheus.Histogram
}

// New creates a Metrics instance with all approval metrics registered.
func New() *Metrics {
	return &Metrics{
		BlueprintsRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vantage_blueprints_requested_total",
			Help: "Total number of blueprint activation requests",
		}),
		BlueprintsReviewed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vantage_blueprints_reviewed_total",
			Help: "Total number of blueprint reviews recorded",
		}),
		BlueprintsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vantage_blueprints_approved_total",
			Help: "Total number of blueprint approvals",
		}),
		ApprovalsBlocked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vantage_approvals_policy_blocked_total",
			Help: "Total number of approvals rejected by live policy evaluation",
		}),
		ApproveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vantage_approve_duration_seconds",
			Help:    "Duration of approve operations (lock + transaction scope)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveApprove records the duration of an approve operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveApprove(start time.Time) {
	m.ApproveDuration.Observe(time.Since(start).Seconds())
}
