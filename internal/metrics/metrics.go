package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics reúne os contadores Prometheus do gateway.
type Metrics struct {
	LoginOutcomes *prometheus.CounterVec
	Registrations prometheus.Counter
	Notifications prometheus.Counter
}

// New cria e registra os contadores no registry informado.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "identidade_login_outcomes_total",
			Help: "Desfechos de login por resultado (exists, need_register, error).",
		}, []string{"outcome"}),
		Registrations: factory.NewCounter(prometheus.CounterOpts{
			Name: "identidade_registrations_total",
			Help: "Registros de cidadão concluídos.",
		}),
		Notifications: factory.NewCounter(prometheus.CounterOpts{
			Name: "identidade_notifications_total",
			Help: "Notificações repassadas ao broker.",
		}),
	}
}
