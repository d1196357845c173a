package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/pancudaniel7/address-relay-service/internal/adapter/filestore"
	"github.com/pancudaniel7/address-relay-service/internal/adapter/store"
	"github.com/pancudaniel7/address-relay-service/internal/core/port"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/applog"
)

const storePingTimeout = 5 * time.Second

// InitStore builds the PersistenceAdapter selected by store.backend.
func InitStore(log applog.AppLogger, v *validator.Validate) (port.PersistenceAdapter, error) {
	backend := strings.ToLower(strings.TrimSpace(viper.GetString("store.backend")))
	switch backend {
	case "redis", "":
		cfg := loadRedisConfig()
		rs, err := store.NewRedisStore(log, v, &cfg)
		if err != nil {
			return nil, fmt.Errorf("infra: failed to init redis store: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), storePingTimeout)
		defer cancel()
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, fmt.Errorf("infra: redis not reachable: %w", err)
		}
		log.Info("Using redis store", "host", cfg.Host, "port", cfg.Port, "retention", cfg.LogRetention)
		return rs, nil

	case "file":
		cfg := filestore.Config{
			Dir:          viper.GetString("file.dir"),
			LogRetention: viper.GetInt("store.log_retention"),
		}
		fs, err := filestore.NewFileStore(log, v, afero.NewOsFs(), &cfg)
		if err != nil {
			return nil, fmt.Errorf("infra: failed to init file store: %w", err)
		}
		log.Info("Using file store", "dir", cfg.Dir, "retention", cfg.LogRetention)
		return fs, nil

	default:
		return nil, fmt.Errorf("infra: unknown store.backend %q (want redis or file)", backend)
	}
}

func loadRedisConfig() store.Config {
	return store.Config{
		Host:               viper.GetString("redis.host"),
		Port:               viper.GetString("redis.port"),
		Password:           viper.GetString("redis.password"),
		DB:                 viper.GetInt("redis.db"),
		UseTLS:             viper.GetBool("redis.use_tls"),
		PoolSize:           viper.GetInt("redis.pool_size"),
		MaxRetries:         viper.GetInt("redis.max_retries"),
		DialTimeoutSeconds: viper.GetInt("redis.dial_timeout_seconds"),
		Keys: store.KeysConfig{
			Addresses: viper.GetString("redis.keys.addresses"),
			Webhook:   viper.GetString("redis.keys.webhook"),
			Logs:      viper.GetString("redis.keys.logs"),
		},
		LogRetention: viper.GetInt("store.log_retention"),
	}
}
