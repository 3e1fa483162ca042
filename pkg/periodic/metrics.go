package periodic

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks Prometheus gauges for the periodic aggregator's
// retrievability-mode queues (§4.6). Nil-receiver methods are no-ops.
type Metrics struct {
	QueueDepth *prometheus.GaugeVec
}

var (
	metricsOnce     sync.Once
	metricsInstance *Metrics
)

// NewMetrics creates and registers the periodic-aggregator metrics. If
// registerer is nil, prometheus.DefaultRegisterer is used. Idempotent via
// sync.Once.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	metricsOnce.Do(func() {
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}

		m := &Metrics{
			QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "sdcgo_periodic_queue_depth",
				Help: "Number of queued periodic-report entries awaiting drain, by report family",
			}, []string{"family"}),
		}

		registerer.MustRegister(m.QueueDepth)
		metricsInstance = m
	})
	return metricsInstance
}

func (m *Metrics) setQueueDepth(family string, depth int) {
	if m == nil {
		return
	}
	m.QueueDepth.WithLabelValues(family).Set(float64(depth))
}
