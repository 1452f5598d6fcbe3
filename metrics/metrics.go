package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	appointmentCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "card_scheduler",
			Name:      "appointment_created_total",
			Help:      "Count of booking attempts by result.",
		},
		[]string{"result"},
	)

	ownerDecision = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "card_scheduler",
			Name:      "owner_decision_total",
			Help:      "Count of owner decisions over appointments.",
		},
		[]string{"decision"},
	)

	slotsComputed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "card_scheduler",
			Name:      "slots_computed_total",
			Help:      "Count of free-slot computations served.",
		},
	)

	configCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "card_scheduler",
			Name:      "config_cache_total",
			Help:      "Scheduler config cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	staleRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "card_scheduler",
			Name:      "stale_rejected_total",
			Help:      "Count of pending appointments rejected after their slot passed.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(appointmentCreated, ownerDecision, slotsComputed, configCache, staleRejected)
	})
}

func IncAppointmentCreated(result string) {
	appointmentCreated.WithLabelValues(result).Inc()
}

func IncOwnerDecision(decision string) {
	ownerDecision.WithLabelValues(decision).Inc()
}

func IncSlotsComputed() {
	slotsComputed.Inc()
}

func IncConfigCache(outcome string) {
	configCache.WithLabelValues(outcome).Inc()
}

func AddStaleRejected(n int64) {
	staleRejected.Add(float64(n))
}
