package infra

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// InitConfig loads the YAML config at path into viper, layered over the
// defaults below and under RELAY_* environment overrides (RELAY_FEED_URL for
// feed.url). A missing file is fine when path is empty; an explicit path must
// exist.
func InitConfig(path string) error {
	setDefaults()

	viper.SetEnvPrefix("RELAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path == "" {
		viper.SetConfigName("config")
		viper.SetConfigType("yml")
		viper.AddConfigPath("configs")
		viper.AddConfigPath(".")
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil
			}
			return fmt.Errorf("infra: failed to read config: %w", err)
		}
		return nil
	}

	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("infra: failed to read config %s: %w", path, err)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("service.name", "address-relay-service")
	viper.SetDefault("service.instance", "local")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("http.addr", ":3000")

	viper.SetDefault("feed.heartbeat_interval_ms", 30000)
	viper.SetDefault("feed.reconnect_delay_ms", 2000)
	viper.SetDefault("feed.max_retries", 3)
	viper.SetDefault("feed.dial_timeout_seconds", 10)
	viper.SetDefault("feed.write_timeout_seconds", 10)
	viper.SetDefault("feed.max_frame_bytes", 1<<20)

	viper.SetDefault("store.backend", "redis")
	viper.SetDefault("store.log_retention", 100)

	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.max_retries", 2)
	viper.SetDefault("redis.dial_timeout_seconds", 5)
	viper.SetDefault("redis.keys.addresses", "subscribedAddresses")
	viper.SetDefault("redis.keys.webhook", "webhookURL")
	viper.SetDefault("redis.keys.logs", "transactionLogs")

	viper.SetDefault("file.dir", "data")

	viper.SetDefault("webhook.timeout_ms", 10000)
	viper.SetDefault("webhook.max_in_flight", 64)

	viper.SetDefault("kafka.enabled", false)
	viper.SetDefault("kafka.topic", "address-transactions")
	viper.SetDefault("kafka.client_id", "address-relay-service")

	viper.SetDefault("pprof.enabled", false)
	viper.SetDefault("pprof.addr", "127.0.0.1:6060")

	viper.SetDefault("shutdown.timeout_seconds", 15)
}
