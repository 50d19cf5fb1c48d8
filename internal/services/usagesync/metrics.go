package usagesync

import "github.com/prometheus/client_golang/prometheus"

// Metrics счётчики цикла синхронизации.
type Metrics struct {
	ticks       *prometheus.CounterVec
	lastSuccess prometheus.Gauge
}

// NewMetrics создаёт метрики и регистрирует их в reg, если он задан.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "idleforest",
			Subsystem: "usage_sync",
			Name:      "total",
			Help:      "Number of sync ticks by outcome.",
		}, []string{"result"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "idleforest",
			Subsystem: "usage_sync",
			Name:      "last_success_seconds",
			Help:      "Unix time of the last successful counter push.",
		}),
	}

	if reg != nil {
		if err := reg.Register(m.ticks); err != nil {
			return nil, err
		}
		if err := reg.Register(m.lastSuccess); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) record(outcome Outcome, unixSeconds float64) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(string(outcome)).Inc()
	if outcome == OutcomeSynced {
		m.lastSuccess.Set(unixSeconds)
	}
}
