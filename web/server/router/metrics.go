package router

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// notFoundRoute is the route label of requests that didn't match any route.
// Using the request path would make the label cardinality unbounded.
const notFoundRoute = "_not_found"

// Metrics records dispatcher metrics.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	panics   prometheus.Counter
}

// NewMetrics creates the dispatcher metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "switchyard",
			Name:      "requests_total",
			Help:      "Total number of dispatched requests.",
		}, []string{"method", "route", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "switchyard",
			Name:      "request_duration_seconds",
			Help:      "Time spent running request chains.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		panics: f.NewCounter(prometheus.CounterOpts{
			Namespace: "switchyard",
			Name:      "panics_total",
			Help:      "Total number of panics recovered while running request chains.",
		}),
	}
}

func (m *Metrics) observe(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) panicked() {
	if m == nil {
		return
	}
	m.panics.Inc()
}
