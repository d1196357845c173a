package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type WebhookMetrics struct {
	DeliveriesTotal *prometheus.CounterVec
	InFlight        prometheus.Gauge
	LatencyMS       prometheus.Histogram
}

var (
	webhookOnce sync.Once
	webhook     *WebhookMetrics
)

func Webhook() *WebhookMetrics {
	webhookOnce.Do(func() {
		r := Registerer()
		webhook = &WebhookMetrics{
			DeliveriesTotal: promauto.With(r).NewCounterVec(
				prometheus.CounterOpts{
					Name: "webhook_deliveries_total",
					Help: "webhook deliveries by result (ok, http_error, network, dropped)",
				},
				[]string{"result"},
			),
			InFlight: promauto.With(r).NewGauge(prometheus.GaugeOpts{
				Name: "webhook_in_flight",
				Help: "webhook deliveries currently in flight",
			}),
			LatencyMS: promauto.With(r).NewHistogram(prometheus.HistogramOpts{
				Name:    "webhook_latency_ms",
				Help:    "webhook POST latency (ms)",
				Buckets: []float64{5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000},
			}),
		}
	})
	return webhook
}
