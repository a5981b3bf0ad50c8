package agent

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the prometheus collectors updated by the agent.
type Metrics struct {
	Decisions          *prometheus.CounterVec
	Mutations          *prometheus.CounterVec
	Turns              *prometheus.CounterVec
	CompletionDuration *prometheus.HistogramVec
}

// NewMetrics creates the agent collectors and registers them on reg.
// A nil reg leaves them unregistered, which is what tests and the
// zero-config CLI use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memagent",
			Subsystem: "memory",
			Name:      "decisions_total",
			Help:      "Memory decisions by outcome (noop, add, replace, purge, failed).",
		}, []string{"outcome"}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memagent",
			Subsystem: "memory",
			Name:      "mutations_total",
			Help:      "Memory store mutations by operation and result.",
		}, []string{"op", "result"}),
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memagent",
			Name:      "turns_total",
			Help:      "Conversation turns by result.",
		}, []string{"result"}),
		CompletionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "memagent",
			Name:      "completion_duration_seconds",
			Help:      "Latency of completion calls by phase (decide, generate).",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"phase"}),
	}
	if reg != nil {
		reg.MustRegister(m.Decisions, m.Mutations, m.Turns, m.CompletionDuration)
	}
	return m
}

func (m *Metrics) mutation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Mutations.WithLabelValues(op, result).Inc()
}
