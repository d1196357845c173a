package store

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/pancudaniel7/address-relay-service/internal/core/entity"
	"github.com/pancudaniel7/address-relay-service/internal/core/port"
	"github.com/pancudaniel7/address-relay-service/internal/core/usecase"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/apperr"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/applog"
	imetrics "github.com/pancudaniel7/address-relay-service/internal/pkg/metrics"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/pattern"
)

// RedisStore persists the watch set as a SET, the webhook URL as a STRING and
// the transaction log as a capped LIST (newest at the head).
//
// Concurrency: RedisStore is safe for concurrent use. Multi-command writes go
// through MULTI/EXEC pipelines so readers never see a half-applied update.
type RedisStore struct {
	rdb       *redis.Client
	log       applog.AppLogger
	validator *validator.Validate
	cfg       Config
}

var _ port.PersistenceAdapter = (*RedisStore)(nil)

// NewRedisStore validates cfg, builds the Redis client with optional TLS and
// returns the store. No connection is made until the first command.
func NewRedisStore(log applog.AppLogger, v *validator.Validate, cfg *Config) (*RedisStore, error) {
	if err := v.Struct(cfg); err != nil {
		log.Error("invalid redis config", "err", err)
		return nil, apperr.NewInvalidArgErr("invalid redis config", err)
	}

	opts := &redis.Options{
		Addr:        net.JoinHostPort(cfg.Host, cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: time.Duration(cfg.DialTimeoutSeconds) * time.Second,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return &RedisStore{
		rdb:       redis.NewClient(opts),
		log:       log,
		validator: v,
		cfg:       *cfg,
	}, nil
}

func (rs *RedisStore) retry(ctx context.Context, op string, fn func() error) error {
	err := pattern.Retry(
		ctx,
		func(attempt int) error {
			if err := fn(); err != nil {
				rs.log.Warn("Redis command failed", "op", op, "attempt", attempt, "err", err)
				return err
			}
			return nil
		},
		pattern.WithMaxAttempts(3),
		pattern.WithInitialDelay(100*time.Millisecond),
		pattern.WithMaxDelay(time.Second),
		pattern.WithShouldRetry(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
	)
	if err != nil {
		imetrics.App().ErrorsTotal.WithLabelValues(imetrics.ComponentRedis, op).Inc()
		return apperr.NewPersistenceErr("redis "+op+" failed", err)
	}
	return nil
}

func (rs *RedisStore) GetAddresses(ctx context.Context) ([]string, error) {
	var out []string
	err := rs.retry(ctx, "get_addresses", func() error {
		members, err := rs.rdb.SMembers(ctx, rs.cfg.Keys.Addresses).Result()
		if err != nil {
			return err
		}
		out = members
		return nil
	})
	return out, err
}

// SetAddresses replaces the whole set in one transaction.
func (rs *RedisStore) SetAddresses(ctx context.Context, addrs []string) error {
	members := make([]any, 0, len(addrs))
	for _, a := range addrs {
		members = append(members, a)
	}
	return rs.retry(ctx, "set_addresses", func() error {
		_, err := rs.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Del(ctx, rs.cfg.Keys.Addresses)
			if len(members) > 0 {
				p.SAdd(ctx, rs.cfg.Keys.Addresses, members...)
			}
			return nil
		})
		return err
	})
}

func (rs *RedisStore) GetWebhookURL(ctx context.Context) (string, error) {
	var url string
	err := rs.retry(ctx, "get_webhook", func() error {
		v, err := rs.rdb.Get(ctx, rs.cfg.Keys.Webhook).Result()
		if errors.Is(err, redis.Nil) {
			url = ""
			return nil
		}
		if err != nil {
			return err
		}
		url = v
		return nil
	})
	return url, err
}

// SetWebhookURL stores url; an empty url deletes the key.
func (rs *RedisStore) SetWebhookURL(ctx context.Context, url string) error {
	return rs.retry(ctx, "set_webhook", func() error {
		if url == "" {
			return rs.rdb.Del(ctx, rs.cfg.Keys.Webhook).Err()
		}
		return rs.rdb.Set(ctx, rs.cfg.Keys.Webhook, url, 0).Err()
	})
}

// AppendLog pushes rec to the head of the log and trims the tail to the
// configured retention.
func (rs *RedisStore) AppendLog(ctx context.Context, rec entity.TransactionRecord) error {
	if err := rs.validator.Struct(rec); err != nil {
		return apperr.NewInvalidArgErr("invalid transaction record", err)
	}
	payload, err := usecase.MarshalRecordJSON(rec)
	if err != nil {
		return apperr.NewInternalErr("failed to marshal transaction record", err)
	}

	err = rs.retry(ctx, "append_log", func() error {
		_, err := rs.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.LPush(ctx, rs.cfg.Keys.Logs, payload)
			p.LTrim(ctx, rs.cfg.Keys.Logs, 0, int64(rs.cfg.LogRetention-1))
			return nil
		})
		return err
	})
	if err != nil {
		return err
	}
	rs.log.Trace("Appended transaction log", "key", rs.cfg.Keys.Logs, "txid", rec.TxID)
	return nil
}

// ReadLog returns up to limit records, newest first. Entries that no longer
// decode are skipped.
func (rs *RedisStore) ReadLog(ctx context.Context, limit int) ([]entity.TransactionRecord, error) {
	if limit <= 0 {
		return []entity.TransactionRecord{}, nil
	}
	var raw []string
	err := rs.retry(ctx, "read_log", func() error {
		vals, err := rs.rdb.LRange(ctx, rs.cfg.Keys.Logs, 0, int64(limit-1)).Result()
		if err != nil {
			return err
		}
		raw = vals
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]entity.TransactionRecord, 0, len(raw))
	for _, item := range raw {
		rec, err := usecase.UnmarshalRecordJSON([]byte(item))
		if err != nil {
			rs.log.Warn("Skipping undecodable log entry", "key", rs.cfg.Keys.Logs, "err", err)
			imetrics.App().WarningsTotal.WithLabelValues(imetrics.ComponentRedis, "decode_log").Inc()
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Ping checks connectivity; used at startup to fail fast on a bad address.
func (rs *RedisStore) Ping(ctx context.Context) error {
	return rs.retry(ctx, "ping", func() error {
		return rs.rdb.Ping(ctx).Err()
	})
}

func (rs *RedisStore) Close() error {
	return rs.rdb.Close()
}
