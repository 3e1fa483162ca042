package transaction

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks Prometheus counters/histograms for the commit algorithm
// (§4.2). Nil-receiver methods are no-ops.
type Metrics struct {
	CommitTotal    *prometheus.CounterVec
	CommitDuration prometheus.Histogram
}

var (
	metricsOnce     sync.Once
	metricsInstance *Metrics
)

// NewMetrics creates and registers the transaction metrics. If registerer
// is nil, prometheus.DefaultRegisterer is used. Idempotent via sync.Once.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	metricsOnce.Do(func() {
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}

		m := &Metrics{
			CommitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "sdcgo_transaction_commit_total",
				Help: "Total transaction commit attempts by outcome",
			}, []string{"outcome"}),
			CommitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "sdcgo_transaction_commit_duration_seconds",
				Help:    "Time to run the five-step commit algorithm",
				Buckets: prometheus.DefBuckets,
			}),
		}

		registerer.MustRegister(m.CommitTotal, m.CommitDuration)
		metricsInstance = m
	})
	return metricsInstance
}

func (m *Metrics) observeCommit(d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.CommitTotal.WithLabelValues(outcome).Inc()
	m.CommitDuration.Observe(d.Seconds())
}
