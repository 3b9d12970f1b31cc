package backend

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records controller activity. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	experiments  *prometheus.CounterVec
	instructions prometheus.Counter
	duration     prometheus.Histogram
}

// NewMetrics registers the backend collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		experiments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qbench",
			Subsystem: "backend",
			Name:      "experiments_total",
			Help:      "Experiments executed by the controller, by status.",
		}, []string{"backend", "status"}),
		instructions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "qbench",
			Subsystem: "backend",
			Name:      "instructions_total",
			Help:      "Instructions applied to statevectors.",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "qbench",
			Subsystem: "backend",
			Name:      "controller_duration_seconds",
			Help:      "Wall time of a controller call.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 14), // 1us to ~67s
		}),
	}
}

func (m *Metrics) observeExperiment(backend, status string, instructions int) {
	if m == nil {
		return
	}

	m.experiments.WithLabelValues(backend, status).Inc()
	m.instructions.Add(float64(instructions))
}

func (m *Metrics) observeController(d time.Duration) {
	if m == nil {
		return
	}

	m.duration.Observe(d.Seconds())
}
