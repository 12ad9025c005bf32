package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/regions/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by the container hooks.
type Metrics struct {
	Actions       *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	FetchFailures *prometheus.CounterVec
	InFlight      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
// Pass prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regions_actions_dispatched_total",
				Help: "Total number of actions dispatched to the state container",
			},
			[]string{"action"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "regions_fetch_duration_seconds",
				Help:    "Duration of country fetches",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"region"},
		),
		FetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regions_fetch_failures_total",
				Help: "Total number of failed country fetches",
			},
			[]string{"region", "status"},
		),
		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "regions_fetches_in_flight",
				Help: "Number of country fetches awaiting a response",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Actions, m.FetchDuration, m.FetchFailures, m.InFlight)
	}
	return m
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			m.Actions.WithLabelValues(string(e.Action)).Inc()
		},
		OnFetchStart: func(ctx context.Context, e *domain.FetchEvent) {
			m.InFlight.Inc()
		},
		OnFetchDone: func(ctx context.Context, e *domain.FetchEvent) {
			m.InFlight.Dec()
			m.FetchDuration.WithLabelValues(e.Region).Observe(e.Duration.Seconds())
			if e.IsError {
				m.FetchFailures.WithLabelValues(e.Region, strconv.Itoa(e.Status)).Inc()
			}
		},
	}
}
