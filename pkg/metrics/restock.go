package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RestockMetrics records signup and restock execution counters.
type RestockMetrics struct {
	signups    *prometheus.CounterVec
	executions *prometheus.CounterVec
	notified   prometheus.Counter
}

// NewRestockMetrics registers the restock metrics on the provided registerer.
func NewRestockMetrics(reg prometheus.Registerer) *RestockMetrics {
	if reg == nil {
		return &RestockMetrics{}
	}
	signups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "restock_signups_total",
		Help: "Restock notification signups by result.",
	}, []string{"result"})
	executions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "restock_executions_total",
		Help: "Restock trigger executions by outcome.",
	}, []string{"outcome"})
	notified := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "restock_notified_subscribers_total",
		Help: "Subscribers included in published restocked events.",
	})
	reg.MustRegister(signups, executions, notified)
	return &RestockMetrics{
		signups:    signups,
		executions: executions,
		notified:   notified,
	}
}

func (m *RestockMetrics) IncSignup(result string) {
	if m == nil || m.signups == nil {
		return
	}
	m.signups.WithLabelValues(result).Inc()
}

func (m *RestockMetrics) IncExecution(outcome string) {
	if m == nil || m.executions == nil {
		return
	}
	m.executions.WithLabelValues(outcome).Inc()
}

func (m *RestockMetrics) AddNotified(n int) {
	if m == nil || m.notified == nil || n <= 0 {
		return
	}
	m.notified.Add(float64(n))
}
