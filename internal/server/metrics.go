package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry    *prometheus.Registry
	accepted    prometheus.Counter
	duplicates  prometheus.Counter
	logins      *prometheus.CounterVec
	liveClients prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "game2048",
			Name:      "scores_accepted_total",
			Help:      "Scores stored for the first time.",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "game2048",
			Name:      "scores_duplicate_total",
			Help:      "Re-submitted scores answered with the existing entry.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "game2048",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		liveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "game2048",
			Name:      "live_subscribers",
			Help:      "Connected live feed subscribers.",
		}),
	}
	m.registry.MustRegister(m.accepted, m.duplicates, m.logins, m.liveClients)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
