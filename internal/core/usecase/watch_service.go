package usecase

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pancudaniel7/address-relay-service/internal/core/entity"
	"github.com/pancudaniel7/address-relay-service/internal/core/port"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/apperr"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/applog"
	imetrics "github.com/pancudaniel7/address-relay-service/internal/pkg/metrics"
)

const (
	DefaultReadLimit = 50
	DefaultRetention = 100
)

type addressesInput struct {
	Addresses []string `validate:"required,min=1,dive,required"`
}

type webhookInput struct {
	URL string `validate:"required,http_url"`
}

// MutationResult is returned by Subscribe (Changed = added) and Unsubscribe
// (Changed = removed).
type MutationResult struct {
	Changed  []string
	Watching []string
}

// WatchService implements the management operations on top of the registry,
// the feed supervisor and the store.
type WatchService struct {
	log       applog.AppLogger
	v         *validator.Validate
	registry  *SubscriptionRegistry
	feed      port.FeedController
	store     port.PersistenceAdapter
	target    *WebhookTarget
	retention int
	now       func() time.Time
}

// NewWatchService wires the service. retention is the store's log capacity
// and bounds ReadLogs; values <= 0 fall back to DefaultRetention.
func NewWatchService(
	log applog.AppLogger,
	v *validator.Validate,
	registry *SubscriptionRegistry,
	feed port.FeedController,
	store port.PersistenceAdapter,
	target *WebhookTarget,
	retention int,
) *WatchService {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &WatchService{
		log:       log,
		v:         v,
		registry:  registry,
		feed:      feed,
		store:     store,
		target:    target,
		retention: retention,
		now:       time.Now,
	}
}

// Bootstrap loads the watch set and webhook URL from the store. It is called
// once before the feed is started.
func (s *WatchService) Bootstrap(ctx context.Context) error {
	if err := s.registry.Load(ctx); err != nil {
		return err
	}
	url, err := s.store.GetWebhookURL(ctx)
	if err != nil {
		return apperr.NewPersistenceErr("failed to load webhook url", err)
	}
	if url != "" {
		s.target.Set(url)
		s.log.Info("Loaded webhook url", "url", url)
	}
	return nil
}

func (s *WatchService) Status(_ context.Context) entity.Status {
	state := s.feed.State()
	_, webhookSet := s.target.Get()
	return entity.Status{
		Connected:    state == entity.StateConnected,
		State:        state.String(),
		Retries:      s.feed.Retries(),
		WatchedCount: s.registry.Len(),
		WebhookSet:   webhookSet,
		ServerTime:   s.now().UTC(),
	}
}

func (s *WatchService) ListWatched() []string {
	return s.registry.List()
}

// Subscribe adds addrs to the watch set and, when connected, pushes only the
// new addresses upstream.
func (s *WatchService) Subscribe(ctx context.Context, addrs []string) (MutationResult, error) {
	if err := s.v.Struct(addressesInput{Addresses: addrs}); err != nil {
		return MutationResult{}, apperr.NewInvalidArgErr("addresses must be a non-empty list of non-empty strings", err)
	}

	added, err := s.registry.Add(ctx, addrs)
	if err != nil {
		s.log.Warn("Subscribe kept in memory only", "added", len(added), "err", err)
	}
	if len(added) > 0 {
		if err := s.feed.Subscribe(ctx, added); err != nil {
			s.log.Warn("Failed to push subscribe delta, next resubscription carries it", "count", len(added), "err", err)
		}
		s.log.Info("Subscribed addresses", "added", added)
	}
	return MutationResult{Changed: added, Watching: s.registry.List()}, nil
}

// Unsubscribe removes addrs from the watch set. Removals stay local; the feed
// keeps streaming them until the next reconnect and the dispatcher filters
// them out.
func (s *WatchService) Unsubscribe(ctx context.Context, addrs []string) (MutationResult, error) {
	if err := s.v.Struct(addressesInput{Addresses: addrs}); err != nil {
		return MutationResult{}, apperr.NewInvalidArgErr("addresses must be a non-empty list of non-empty strings", err)
	}

	removed, err := s.registry.Remove(ctx, addrs)
	if err != nil {
		s.log.Warn("Unsubscribe kept in memory only", "removed", len(removed), "err", err)
	}
	if len(removed) > 0 {
		s.log.Info("Unsubscribed addresses", "removed", removed)
	}
	return MutationResult{Changed: removed, Watching: s.registry.List()}, nil
}

// ReadLogs returns the most recent records, newest first.
func (s *WatchService) ReadLogs(ctx context.Context, limit int) ([]entity.TransactionRecord, error) {
	if limit <= 0 {
		limit = DefaultReadLimit
	}
	if limit > s.retention {
		limit = s.retention
	}
	recs, err := s.store.ReadLog(ctx, limit)
	if err != nil {
		return nil, apperr.NewPersistenceErr("failed to read transaction log", err)
	}
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// SetWebhook replaces the webhook URL. The new value applies to the next
// matched frame even when persisting it fails.
func (s *WatchService) SetWebhook(ctx context.Context, url string) error {
	if err := s.v.Struct(webhookInput{URL: url}); err != nil {
		return apperr.NewInvalidArgErr("url must be an absolute http or https URL", err)
	}

	s.target.Set(url)
	if err := s.store.SetWebhookURL(ctx, url); err != nil {
		imetrics.Watch().PersistErrsTotal.Inc()
		imetrics.App().ErrorsTotal.WithLabelValues(imetrics.ComponentRegistry, "persist_webhook").Inc()
		s.log.Error("Failed to persist webhook url", "url", url, "err", err)
		return nil
	}
	s.log.Info("Webhook url set", "url", url)
	return nil
}
