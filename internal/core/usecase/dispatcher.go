package usecase

import (
	"context"
	"time"

	"github.com/pancudaniel7/address-relay-service/internal/core/port"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/applog"
	imetrics "github.com/pancudaniel7/address-relay-service/internal/pkg/metrics"
)

// Dispatch outcomes, used as metric labels.
const (
	outcomeMatched     = "matched"
	outcomeFiltered    = "filtered"
	outcomeIgnored     = "ignored"
	outcomeDecodeError = "decode_error"
)

// EventDispatcher turns inbound feed frames into logged and relayed
// transaction records. HandleFrame is called serially by the feed reader, so
// per-connection order is kept; relay hand-offs never block it.
type EventDispatcher struct {
	log       applog.AppLogger
	watch     port.WatchSet
	store     port.PersistenceAdapter
	target    *WebhookTarget
	deliverer port.WebhookDeliverer
	publisher port.TransactionPublisher
	now       func() time.Time
}

// NewEventDispatcher wires the dispatcher. publisher may be nil when no
// broker mirror is configured.
func NewEventDispatcher(
	log applog.AppLogger,
	watch port.WatchSet,
	store port.PersistenceAdapter,
	target *WebhookTarget,
	deliverer port.WebhookDeliverer,
	publisher port.TransactionPublisher,
) *EventDispatcher {
	return &EventDispatcher{
		log:       log,
		watch:     watch,
		store:     store,
		target:    target,
		deliverer: deliverer,
		publisher: publisher,
		now:       time.Now,
	}
}

// HandleFrame implements port.FrameHandler. Only decode failures are
// returned; persistence and relay failures are reported and swallowed.
func (d *EventDispatcher) HandleFrame(ctx context.Context, raw []byte) error {
	env, err := DecodeFrame(raw)
	if err != nil {
		imetrics.Dispatch().FramesTotal.WithLabelValues(outcomeDecodeError).Inc()
		return err
	}

	address, tx, ok := notification(env)
	if !ok {
		imetrics.Dispatch().FramesTotal.WithLabelValues(outcomeIgnored).Inc()
		d.log.Trace("Ignoring non-notification frame", "id", env.ID)
		return nil
	}

	// An unsubscribe may race a notification the feed already queued; dropping
	// it here is the only guard needed.
	if !d.watch.Contains(address) {
		imetrics.Dispatch().FramesTotal.WithLabelValues(outcomeFiltered).Inc()
		return nil
	}

	start := time.Now()
	rec := mapRecord(address, tx, d.now())
	imetrics.Dispatch().FramesTotal.WithLabelValues(outcomeMatched).Inc()

	if err := d.store.AppendLog(ctx, rec); err != nil {
		imetrics.Dispatch().PersistErrorsTotal.Inc()
		imetrics.App().ErrorsTotal.WithLabelValues(imetrics.ComponentDispatcher, "append_log").Inc()
		d.log.Error("Failed to append transaction log", "address", rec.Address, "txid", rec.TxID, "err", err)
	} else {
		d.log.Info("TX logged", "address", rec.Address, "txid", rec.TxID, "value", rec.Value)
	}

	if url, ok := d.target.Get(); ok && d.deliverer != nil {
		d.deliverer.Deliver(url, rec)
	}
	if d.publisher != nil {
		d.publisher.Publish(ctx, rec)
	}

	imetrics.Dispatch().ProcessLatencyMS.Observe(float64(time.Since(start).Microseconds()) / 1000)
	return nil
}
