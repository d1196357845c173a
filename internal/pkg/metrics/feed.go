package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type FeedMetrics struct {
	Connected        prometheus.Gauge
	State            *prometheus.GaugeVec
	DialsTotal       *prometheus.CounterVec
	ReconnectsTotal  prometheus.Counter
	FramesTotal      prometheus.Counter
	CommandsTotal    *prometheus.CounterVec
	HandlerErrsTotal prometheus.Counter
}

var (
	feedOnce sync.Once
	feed     *FeedMetrics
)

func Feed() *FeedMetrics {
	feedOnce.Do(func() {
		r := Registerer()
		feed = &FeedMetrics{
			Connected: promauto.With(r).NewGauge(prometheus.GaugeOpts{
				Name: "feed_connected",
				Help: "upstream feed connectivity (1=connected,0=not connected)",
			}),
			State: promauto.With(r).NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "feed_state",
					Help: "current feed connection state (1 for the active state label)",
				},
				[]string{"state"},
			),
			DialsTotal: promauto.With(r).NewCounterVec(
				prometheus.CounterOpts{
					Name: "feed_dials_total",
					Help: "feed dial attempts by result",
				},
				[]string{"result"},
			),
			ReconnectsTotal: promauto.With(r).NewCounter(prometheus.CounterOpts{
				Name: "feed_reconnects_total",
				Help: "reconnect attempts scheduled after a transport failure",
			}),
			FramesTotal: promauto.With(r).NewCounter(prometheus.CounterOpts{
				Name: "feed_frames_total",
				Help: "inbound frames read from the feed",
			}),
			CommandsTotal: promauto.With(r).NewCounterVec(
				prometheus.CounterOpts{
					Name: "feed_commands_total",
					Help: "outbound commands by method and result",
				},
				[]string{"method", "result"},
			),
			HandlerErrsTotal: promauto.With(r).NewCounter(prometheus.CounterOpts{
				Name: "feed_handler_errors_total",
				Help: "frames the handler rejected (decode failures)",
			}),
		}
	})
	return feed
}
