package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pscheid92/instaplanner/internal/app"
)

// DispatchMetrics implements app.Observer and feeds the model loader's
// observer hook.
type DispatchMetrics struct {
	Outcomes       *prometheus.CounterVec
	TerminalStates *prometheus.CounterVec
	ModelLoads     *prometheus.CounterVec
}

var _ app.Observer = (*DispatchMetrics)(nil)

func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	m := &DispatchMetrics{
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "outcomes_total",
			Help:      "Dispatch decisions, by outcome.",
		}, []string{"outcome"}),
		TerminalStates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "terminal_states_total",
			Help:      "Requests by the state they ended in.",
		}, []string{"state"}),
		ModelLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_loads_total",
			Help:      "Model loads, by the tier that served them.",
		}, []string{"tier"}),
	}

	reg.MustRegister(m.Outcomes, m.TerminalStates, m.ModelLoads)
	return m
}

func (m *DispatchMetrics) ObserveOutcome(outcome app.Outcome) {
	m.Outcomes.WithLabelValues(outcome.Kind()).Inc()
}

func (m *DispatchMetrics) ObserveTerminal(state app.State) {
	m.TerminalStates.WithLabelValues(state.String()).Inc()
}

// ObserveModelLoad has the shape of app.LoadObserver. Route names are left
// out of the labels to keep cardinality bounded.
func (m *DispatchMetrics) ObserveModelLoad(_ string, tier app.Tier) {
	m.ModelLoads.WithLabelValues(tier.String()).Inc()
}
