package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the plan module.
type Metrics struct {
	PlansCreated         prometheus.Counter
	BeneficiariesAdded   prometheus.Counter
	BeneficiariesRemoved prometheus.Counter
	AddDuration          prometheus.Histogram
	RemoveDuration       prometheus.Histogram
}

// New creates a Metrics instance with all plan module metrics registered.
func New() *Metrics {
	return &Metrics{
		PlansCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "testament_plans_created_total",
			Help: "Total number of inheritance plans created",
		}),
		BeneficiariesAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "testament_beneficiaries_added_total",
			Help: "Total number of beneficiaries added across all plans",
		}),
		BeneficiariesRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "testament_beneficiaries_removed_total",
			Help: "Total number of beneficiaries removed across all plans",
		}),
		AddDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "testament_add_beneficiary_duration_seconds",
			Help:    "Duration of AddBeneficiary operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		RemoveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "testament_remove_beneficiary_duration_seconds",
			Help:    "Duration of RemoveBeneficiary operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveAdd records the duration of an AddBeneficiary operation.
func (m *Metrics) ObserveAdd(start time.Time) {
	m.AddDuration.Observe(time.Since(start).Seconds())
}

// ObserveRemove records the duration of a RemoveBeneficiary operation.
func (m *Metrics) ObserveRemove(start time.Time) {
	m.RemoveDuration.Observe(time.Since(start).Seconds())
}
