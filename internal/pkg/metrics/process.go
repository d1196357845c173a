package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ProcessMetrics struct {
	Goroutines    prometheus.GaugeFunc
	UptimeSeconds prometheus.GaugeFunc
}

var (
	processOnce sync.Once
	process     *ProcessMetrics
)

func Process() *ProcessMetrics {
	processOnce.Do(func() {
		r := Registerer()
		started := time.Now()
		process = &ProcessMetrics{
			Goroutines: promauto.With(r).NewGaugeFunc(prometheus.GaugeOpts{
				Name: "app_goroutines",
				Help: "Number of goroutines (runtime.NumGoroutine).",
			}, func() float64 {
				return float64(runtime.NumGoroutine())
			}),
			UptimeSeconds: promauto.With(r).NewGaugeFunc(prometheus.GaugeOpts{
				Name: "app_uptime_seconds",
				Help: "Seconds since the relay process registered its metrics.",
			}, func() float64 {
				return time.Since(started).Seconds()
			}),
		}
	})
	return process
}
