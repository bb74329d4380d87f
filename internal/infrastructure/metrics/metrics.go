package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Voice intake metrics
var (
	// Turn counters by final state.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voice",
			Subsystem: "intake",
			Name:      "turns_total",
			Help:      "Total conversational turns processed",
		},
		[]string{"state"},
	)

	// Engine call duration.
	EngineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "voice",
			Subsystem: "intake",
			Name:      "engine_duration_seconds",
			Help:      "Understanding engine call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	// Engine failures by kind (transport vs malformed reply).
	EngineFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voice",
			Subsystem: "intake",
			Name:      "engine_failures_total",
			Help:      "Understanding engine failures",
		},
		[]string{"kind"},
	)

	// Records handed to the business application.
	RecordsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voice",
			Subsystem: "intake",
			Name:      "records_saved_total",
			Help:      "Confirmed records handed off",
		},
		[]string{"action"},
	)

	// Sessions cleared through /voice/clear.
	SessionsCleared = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "voice",
			Subsystem: "intake",
			Name:      "sessions_cleared_total",
			Help:      "Explicit session clears",
		},
	)
)

// Handler returns the prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
