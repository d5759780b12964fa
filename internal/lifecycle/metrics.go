package lifecycle

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels one janitor decision about an old storage key.
type Outcome string

const (
	OutcomeDeleted         Outcome = "deleted"
	OutcomePreserved       Outcome = "preserved_hash_match"
	OutcomeReferenced      Outcome = "kept_referenced"
	OutcomeMissing         Outcome = "missing"
	OutcomeDeleteFailed    Outcome = "delete_failed"
	OutcomeCheckFailed     Outcome = "check_failed"
	OutcomeHashUnavailable Outcome = "hash_unavailable"
)

// Metrics holds janitor counters.
type Metrics struct {
	decisions *prometheus.CounterVec
}

// NewMetrics creates janitor counters and registers them with reg when reg is
// not nil. Registering twice on the same registry reuses the first collector.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "silverrail",
		Subsystem: "files",
		Name:      "decisions_total",
		Help:      "Attachment janitor decisions by record type and outcome.",
	}, []string{"record_type", "outcome"})

	if reg != nil {
		if err := reg.Register(decisions); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
					decisions = existing
				}
			}
		}
	}
	return &Metrics{decisions: decisions}
}

func (m *Metrics) observe(recordType string, outcome Outcome) {
	if m == nil || m.decisions == nil {
		return
	}
	m.decisions.WithLabelValues(recordType, string(outcome)).Inc()
}

// Decisions exposes the underlying counter for scraping and tests.
func (m *Metrics) Decisions() *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.decisions
}
