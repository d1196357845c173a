package publish

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/pancudaniel7/address-relay-service/internal/core/entity"
	"github.com/pancudaniel7/address-relay-service/internal/core/port"
	"github.com/pancudaniel7/address-relay-service/internal/core/usecase"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/apperr"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/applog"
	imetrics "github.com/pancudaniel7/address-relay-service/internal/pkg/metrics"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/pattern"
)

const (
	defaultRetryAttempts       = 5
	defaultRetryInitialBackoff = 200 * time.Millisecond
	defaultRetryMaxBackoff     = 2 * time.Second
	defaultRetryJitter         = 0.2
	defaultWriteTimeout        = 10 * time.Second
)

type kgoClient interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Close()
}

var newKgoClient = func(opts ...kgo.Opt) (kgoClient, error) {
	c, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// KafkaPublisher mirrors matched transaction records to a Kafka topic. Publish
// hands the record to the producer and returns; the outcome is reported from
// the produce promise.
type KafkaPublisher struct {
	log          applog.AppLogger
	client       kgoClient
	cfg          Config
	writeTimeout time.Duration
}

var _ port.TransactionPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher builds a Kafka-backed publisher with validated configuration and retry settings.
func NewKafkaPublisher(log applog.AppLogger, cfg Config, v *validator.Validate) (*KafkaPublisher, error) {
	if err := v.Struct(cfg); err != nil {
		return nil, apperr.NewInvalidArgErr("invalid kafka publisher config", err)
	}

	maxAttempts := cfg.MaxRetryAttempts
	if maxAttempts == 0 {
		maxAttempts = defaultRetryAttempts
	}

	initialBackoff := millisecondsOrDefault(cfg.RetryInitialBackoffMS, defaultRetryInitialBackoff)
	maxBackoff := millisecondsOrDefault(cfg.RetryMaxBackoffMS, defaultRetryMaxBackoff)
	if maxBackoff < initialBackoff {
		maxBackoff = initialBackoff
	}

	writeTimeout := secondsOrDefault(cfg.WriteTimeoutSeconds, defaultWriteTimeout)
	jitter := cfg.RetryJitter
	if jitter <= 0 {
		jitter = defaultRetryJitter
	}
	backoff := []pattern.RetryOption{
		pattern.WithInitialDelay(initialBackoff),
		pattern.WithMaxDelay(maxBackoff),
		pattern.WithJitter(jitter),
	}

	client, err := newKgoClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordRetries(maxAttempts),
		kgo.RecordDeliveryTimeout(writeTimeout),
		kgo.RetryBackoffFn(func(tries int) time.Duration {
			return pattern.BackoffDelay(tries, backoff...)
		}),
	)
	if err != nil {
		return nil, apperr.NewInvalidArgErr("failed to init kafka client", err)
	}

	return &KafkaPublisher{
		log:          log,
		client:       client,
		cfg:          cfg,
		writeTimeout: writeTimeout,
	}, nil
}

// Publish enqueues rec keyed by address. It never blocks on the broker; the
// record outlives ctx cancellation so Close can flush it.
func (kp *KafkaPublisher) Publish(ctx context.Context, rec entity.TransactionRecord) {
	payload, err := usecase.MarshalRecordJSON(rec)
	if err != nil {
		kp.log.Error("Failed to marshal transaction payload", "txid", rec.TxID, "err", err)
		imetrics.Kafka().ProduceErrorsTotal.WithLabelValues("marshal").Inc()
		return
	}

	r := kp.buildRecord(rec, payload)
	start := time.Now()
	imetrics.Kafka().ProduceAttemptsTotal.Inc()
	kp.client.Produce(context.WithoutCancel(ctx), r, func(r *kgo.Record, err error) {
		imetrics.Kafka().ProduceLatencyMS.Observe(float64(time.Since(start).Milliseconds()))
		if err != nil {
			perr := apperr.NewPublishErr("failed to publish transaction to kafka", err)
			imetrics.Kafka().ProduceErrorsTotal.WithLabelValues(classifyProduceError(err)).Inc()
			imetrics.App().ErrorsTotal.WithLabelValues(imetrics.ComponentKafka, "produce").Inc()
			kp.log.Warn("Kafka publish failed", "topic", r.Topic, "txid", rec.TxID, "err", perr)
			return
		}
		imetrics.Kafka().ProduceSuccessTotal.Inc()
		kp.log.Trace("Published transaction to Kafka", "topic", r.Topic, "partition", r.Partition, "offset", r.Offset, "txid", rec.TxID)
	})
}

func (kp *KafkaPublisher) buildRecord(rec entity.TransactionRecord, payload []byte) *kgo.Record {
	return &kgo.Record{
		Topic: kp.cfg.Topic,
		Key:   []byte(rec.Address),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "address", Value: []byte(rec.Address)},
			{Key: "txid", Value: []byte(rec.TxID)},
		},
	}
}

// Close flushes buffered records, bounded by ctx, and closes the client.
func (kp *KafkaPublisher) Close(ctx context.Context) error {
	flushCtx, cancel := context.WithTimeout(ctx, kp.writeTimeout)
	defer cancel()
	err := kp.client.Flush(flushCtx)
	kp.client.Close()
	if err != nil {
		return apperr.NewPublishErr("failed to flush kafka producer", err)
	}
	return nil
}

func classifyProduceError(err error) string {
	var netErr net.Error
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, kerr.UnknownTopicOrPartition):
		return "unknown_topic"
	case errors.As(err, &netErr):
		return "network"
	case kerr.IsRetriable(err):
		return "retriable"
	default:
		return "fatal"
	}
}

func millisecondsOrDefault(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func secondsOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
