package infra

import (
	"context"

	"admission-gate/middleware/admission/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusStats exporta as decisões do gate como contadores.
// Não usa o usuário como label (cardinalidade).
type PrometheusStats struct {
	decisions *prometheus.CounterVec
}

// NewPrometheusStats registra os coletores em reg (prometheus.DefaultRegisterer se nil).
func NewPrometheusStats(reg prometheus.Registerer) (*PrometheusStats, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	decisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "admission",
			Name:      "decisions_total",
			Help:      "Total number of admission gate decisions by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)
	if err := reg.Register(decisions); err != nil {
		return nil, err
	}
	return &PrometheusStats{decisions: decisions}, nil
}

func (p *PrometheusStats) Record(_ context.Context, ev domain.StatsEvent) error {
	p.decisions.WithLabelValues(ev.Stage, ev.Outcome).Inc()
	return nil
}

// Decisions expõe o vetor de contadores (testes e dashboards locais).
func (p *PrometheusStats) Decisions() *prometheus.CounterVec { return p.decisions }
