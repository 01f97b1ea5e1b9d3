package pathfinding

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Query result labels.
const (
	ResultOK         = "ok"
	ResultOffGrid    = "off_grid"
	ResultNoWalkable = "no_walkable"
	ResultUnreached  = "unreached"
	ResultAtTarget   = "at_target"
)

// Metrics exports pass and query statistics. A nil *Metrics records nothing.
type Metrics struct {
	passes       prometheus.Counter
	passDuration prometheus.Histogram
	reached      prometheus.Gauge
	generation   prometheus.Gauge
	queries      *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swarmpath",
			Name:      "field_passes_total",
			Help:      "Completed path field passes.",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "swarmpath",
			Name:      "field_pass_duration_seconds",
			Help:      "Wall time of one path field pass.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14),
		}),
		reached: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "swarmpath",
			Name:      "field_reached_cells",
			Help:      "Cells reached by the most recent pass.",
		}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "swarmpath",
			Name:      "field_generation",
			Help:      "Generation number of the published pass.",
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swarmpath",
			Name:      "path_queries_total",
			Help:      "Path queries by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.passes, m.passDuration, m.reached, m.generation, m.queries)
	}
	return m
}

func (m *Metrics) observePass(d time.Duration, reached int, generation uint64) {
	if m == nil {
		return
	}
	m.passes.Inc()
	m.passDuration.Observe(d.Seconds())
	m.reached.Set(float64(reached))
	m.generation.Set(float64(generation))
}

func (m *Metrics) observeQuery(result string) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(result).Inc()
}
