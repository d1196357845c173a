package infra

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pancudaniel7/address-relay-service/internal/adapter/feed"
	"github.com/pancudaniel7/address-relay-service/internal/core/port"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/applog"
)

// InitFeed constructs the feed supervisor from viper configuration. The
// supervisor resubscribes watch on every connect.
func InitFeed(log applog.AppLogger, wg *sync.WaitGroup, v *validator.Validate, watch port.WatchSet) (*feed.Supervisor, error) {
	if wg == nil {
		wg = &sync.WaitGroup{}
	}
	if v == nil {
		v = validator.New()
	}

	cfg := feed.Config{
		URL:                 viper.GetString("feed.url"),
		HeartbeatIntervalMS: viper.GetInt("feed.heartbeat_interval_ms"),
		ReconnectDelayMS:    viper.GetInt("feed.reconnect_delay_ms"),
		MaxRetries:          viper.GetInt("feed.max_retries"),
		DialTimeoutSeconds:  viper.GetInt("feed.dial_timeout_seconds"),
		WriteTimeoutSeconds: viper.GetInt("feed.write_timeout_seconds"),
		MaxFrameBytes:       viper.GetInt64("feed.max_frame_bytes"),
	}

	s, err := feed.NewSupervisor(log, wg, &cfg, v, watch)
	if err != nil {
		return nil, fmt.Errorf("infra: failed to init feed: %w", err)
	}
	return s, nil
}
