package enrollment

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels of enrollment_events_total.
const (
	OutcomeEnrolled           = "enrolled"
	OutcomeInvalid            = "invalid"
	OutcomeUnresolvedLocation = "unresolved_location"
	OutcomeUpstreamError      = "upstream_error"
	OutcomePartialFailure     = "partial_failure"
)

// Metrics records what happened to each event. A nil *Metrics records nothing.
type Metrics struct {
	events          *prometheus.CounterVec
	partialFailures *prometheus.CounterVec
	duration        prometheus.Histogram
}

// NewMetrics creates the enrollment metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "enrollment",
			Name:      "events_total",
			Help:      "Customer events handled, by outcome",
		}, []string{"outcome"}),
		partialFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "enrollment",
			Name:      "partial_failures_total",
			Help:      "Profiles created but not added to their list, by list id",
		}, []string{"list_id"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "enrollment",
			Name:      "duration_seconds",
			Help:      "Time spent handling one customer event",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{m.events, m.partialFailures, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(outcome).Inc()
	m.duration.Observe(seconds)
}

func (m *Metrics) partialFailure(listID string) {
	if m == nil {
		return
	}
	m.partialFailures.WithLabelValues(listID).Inc()
}
