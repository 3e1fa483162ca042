package subscription

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks Prometheus counters/histograms for the subscription
// fan-out path (§4.4). Nil-receiver methods are no-ops, so a Manager
// built with nil metrics costs nothing.
type Metrics struct {
	Active       prometheus.Gauge
	NotifyTotal  *prometheus.CounterVec
	FanOutLatency prometheus.Histogram
}

var (
	metricsOnce     sync.Once
	metricsInstance *Metrics
)

// NewMetrics creates and registers the subscription metrics. If registerer
// is nil, prometheus.DefaultRegisterer is used. Idempotent via sync.Once,
// so repeated calls (e.g. from tests constructing multiple Managers) never
// panic on double registration.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	metricsOnce.Do(func() {
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}

		m := &Metrics{
			Active: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "sdcgo_subscriptions_active",
				Help: "Number of live WS-Eventing subscriptions",
			}),
			NotifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "sdcgo_subscription_notify_total",
				Help: "Total notification delivery attempts by outcome",
			}, []string{"outcome"}),
			FanOutLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "sdcgo_subscription_fanout_duration_seconds",
				Help:    "Time to fan a report out to every matching subscriber",
				Buckets: prometheus.DefBuckets,
			}),
		}

		registerer.MustRegister(m.Active, m.NotifyTotal, m.FanOutLatency)
		metricsInstance = m
	})
	return metricsInstance
}

func (m *Metrics) setActive(n int) {
	if m == nil {
		return
	}
	m.Active.Set(float64(n))
}

func (m *Metrics) observeNotify(success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "error"
	}
	m.NotifyTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeFanOut(d time.Duration) {
	if m == nil {
		return
	}
	m.FanOutLatency.Observe(d.Seconds())
}
