// Package metrics registers the Prometheus counters exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	VigilanceCalls   *prometheus.CounterVec
	VigilanceRetries prometheus.Counter
	SyncPushes       *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		VigilanceCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigilance_calls_total",
			Help: "Outbound vigilance API attempts by module and outcome",
		}, []string{"module", "outcome"}),
		VigilanceRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigilance_auth_retries_total",
			Help: "Business calls retried after a 401/403 response",
		}),
		SyncPushes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_pushes_total",
			Help: "Remote push outcomes by module and final sync status",
		}, []string{"module", "status"}),
	}
}
