package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DispatchMetrics struct {
	FramesTotal        *prometheus.CounterVec
	PersistErrorsTotal prometheus.Counter
	ProcessLatencyMS   prometheus.Histogram
}

var (
	dispatchOnce sync.Once
	dispatch     *DispatchMetrics
)

func Dispatch() *DispatchMetrics {
	dispatchOnce.Do(func() {
		r := Registerer()
		dispatch = &DispatchMetrics{
			FramesTotal: promauto.With(r).NewCounterVec(
				prometheus.CounterOpts{
					Name: "dispatch_frames_total",
					Help: "frames seen by the dispatcher by outcome (matched, filtered, ignored, decode_error)",
				},
				[]string{"outcome"},
			),
			PersistErrorsTotal: promauto.With(r).NewCounter(prometheus.CounterOpts{
				Name: "dispatch_persist_errors_total",
				Help: "transaction log appends that failed",
			}),
			ProcessLatencyMS: promauto.With(r).NewHistogram(prometheus.HistogramOpts{
				Name:    "dispatch_process_latency_ms",
				Help:    "time spent handling a matched frame before relay hand-off (ms)",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 50, 100, 200, 500},
			}),
		}
	})
	return dispatch
}
