package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type WatchMetrics struct {
	WatchedAddresses prometheus.Gauge
	MutationsTotal   *prometheus.CounterVec
	PersistErrsTotal prometheus.Counter
}

var (
	watchOnce sync.Once
	watch     *WatchMetrics
)

func Watch() *WatchMetrics {
	watchOnce.Do(func() {
		r := Registerer()
		watch = &WatchMetrics{
			WatchedAddresses: promauto.With(r).NewGauge(prometheus.GaugeOpts{
				Name: "watch_addresses",
				Help: "addresses currently in the watch set",
			}),
			MutationsTotal: promauto.With(r).NewCounterVec(
				prometheus.CounterOpts{
					Name: "watch_mutations_total",
					Help: "addresses added or removed from the watch set",
				},
				[]string{"op"},
			),
			PersistErrsTotal: promauto.With(r).NewCounter(prometheus.CounterOpts{
				Name: "watch_persist_errors_total",
				Help: "watch set or webhook writes that failed to persist",
			}),
		}
	})
	return watch
}
