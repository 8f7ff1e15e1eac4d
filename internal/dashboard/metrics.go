package dashboard

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Refreshes       *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	Simulations     *prometheus.CounterVec
	ListenerPanics  prometheus.Counter
	Listeners       prometheus.Gauge
}

// NewMetrics registers the dashboard collectors on reg. A nil reg builds
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sysora_dashboard_refresh_total",
			Help: "Dashboard refreshes by snapshot source and fallback reason",
		}, []string{"source", "reason"}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sysora_dashboard_refresh_duration_seconds",
			Help:    "Duration of dashboard refreshes including fallback substitution",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		Simulations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sysora_dashboard_simulated_updates_total",
			Help: "Simulated live updates applied to the cached snapshot",
		}, []string{"field"}),
		ListenerPanics: factory.NewCounter(prometheus.CounterOpts{
			Name: "sysora_dashboard_listener_panics_total",
			Help: "Dashboard listeners that panicked during notification",
		}),
		Listeners: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sysora_dashboard_listeners",
			Help: "Registered dashboard listeners",
		}),
	}
}

func (m *Metrics) observeRefresh(source, reason string, start, end time.Time) {
	m.Refreshes.WithLabelValues(source, reason).Inc()
	m.RefreshDuration.Observe(end.Sub(start).Seconds())
}
