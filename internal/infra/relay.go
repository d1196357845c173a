package infra

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pancudaniel7/address-relay-service/internal/adapter/publish"
	"github.com/pancudaniel7/address-relay-service/internal/adapter/webhook"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/applog"
)

// InitWebhookClient wires the webhook delivery client.
func InitWebhookClient(log applog.AppLogger, v *validator.Validate) (*webhook.Client, error) {
	cfg := webhook.Config{
		TimeoutMS:   viper.GetInt("webhook.timeout_ms"),
		MaxInFlight: viper.GetInt64("webhook.max_in_flight"),
		UserAgent:   viper.GetString("service.name"),
	}
	c, err := webhook.NewClient(log, v, &cfg)
	if err != nil {
		return nil, fmt.Errorf("infra: failed to init webhook client: %w", err)
	}
	return c, nil
}

// InitTransactionPublisher wires the Kafka mirror. It returns nil when
// kafka.enabled is false.
func InitTransactionPublisher(log applog.AppLogger, v *validator.Validate) (*publish.KafkaPublisher, error) {
	if !viper.GetBool("kafka.enabled") {
		log.Info("Kafka mirror disabled")
		return nil, nil
	}
	if v == nil {
		v = validator.New()
	}

	cfg := publish.Config{
		Brokers:               viper.GetStringSlice("kafka.brokers"),
		Topic:                 viper.GetString("kafka.topic"),
		ClientID:              viper.GetString("kafka.client_id"),
		MaxRetryAttempts:      viper.GetInt("kafka.max_retry_attempts"),
		RetryInitialBackoffMS: viper.GetInt("kafka.retry_initial_backoff_ms"),
		RetryMaxBackoffMS:     viper.GetInt("kafka.retry_max_backoff_ms"),
		RetryJitter:           viper.GetFloat64("kafka.retry_jitter"),
		WriteTimeoutSeconds:   viper.GetInt("kafka.write_timeout_seconds"),
	}

	publisher, err := publish.NewKafkaPublisher(log, cfg, v)
	if err != nil {
		return nil, fmt.Errorf("infra: failed to init transaction publisher: %w", err)
	}
	log.Info("Kafka mirror enabled", "topic", cfg.Topic, "brokers", cfg.Brokers)
	return publisher, nil
}
