package metrics

import (
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics covers the option cache and the Redis client behind it.
type CacheMetrics struct {
	Lookups             *prometheus.CounterVec
	RedisCommands       *prometheus.CounterVec
	RedisCommandSeconds *prometheus.HistogramVec
	CircuitBreakerState prometheus.Gauge
}

func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "option_cache",
			Name:      "lookups_total",
			Help:      "Option lookups, by the layer that answered.",
		}, []string{"layer"}),
		RedisCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "commands_total",
			Help:      "Redis commands, by command and status.",
		}, []string{"command", "status"}),
		RedisCommandSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "command_duration_seconds",
			Help:      "Redis command latency.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"command"}),
		CircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "circuit_breaker_state",
			Help:      "0 closed, 1 half-open, 2 open.",
		}),
	}

	reg.MustRegister(m.Lookups, m.RedisCommands, m.RedisCommandSeconds, m.CircuitBreakerState)
	return m
}

func (m *CacheMetrics) ObserveLookup(layer string) {
	m.Lookups.WithLabelValues(layer).Inc()
}

func (m *CacheMetrics) ObserveRedisCommand(command, status string, seconds float64) {
	m.RedisCommands.WithLabelValues(command, status).Inc()
	m.RedisCommandSeconds.WithLabelValues(command).Observe(seconds)
}

func (m *CacheMetrics) ObserveCircuitState(_, to circuitbreaker.State) {
	m.CircuitBreakerState.Set(stateToFloat(to))
}

func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}
