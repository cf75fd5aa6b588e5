package metrics

import "github.com/prometheus/client_golang/prometheus"

// DBMetrics implements postgres.QueryObserver.
type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
	QueryErrors   *prometheus.CounterVec
}

func NewDBMetrics(reg prometheus.Registerer) *DBMetrics {
	m := &DBMetrics{
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query latency, by SQL operation.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		QueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Failed database queries, by SQL operation.",
		}, []string{"operation"}),
	}

	reg.MustRegister(m.QueryDuration, m.QueryErrors)
	return m
}

func (m *DBMetrics) ObserveQuery(operation string, seconds float64, err error) {
	m.QueryDuration.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		m.QueryErrors.WithLabelValues(operation).Inc()
	}
}
