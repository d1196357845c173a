package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/pancudaniel7/address-relay-service/internal/core/port"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/apperr"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/applog"
	imetrics "github.com/pancudaniel7/address-relay-service/internal/pkg/metrics"
)

// SubscriptionRegistry is the in-memory watch set, mirrored to the store.
//
// Concurrency: mu guards the set and is only ever held for in-memory work, so
// Contains on the frame path never waits on I/O. persistMu serializes
// mutations end to end (compute, apply, persist) so concurrent Add/Remove
// calls cannot lose updates and the persisted set never regresses to an
// older snapshot.
type SubscriptionRegistry struct {
	log       applog.AppLogger
	store     port.PersistenceAdapter
	persistMu sync.Mutex
	mu        sync.RWMutex
	addrs     map[string]struct{}
}

var _ port.WatchSet = (*SubscriptionRegistry)(nil)

// NewSubscriptionRegistry returns an empty registry mirrored to store. Call
// Load to pick up the persisted set.
func NewSubscriptionRegistry(log applog.AppLogger, store port.PersistenceAdapter) *SubscriptionRegistry {
	return &SubscriptionRegistry{
		log:   log,
		store: store,
		addrs: make(map[string]struct{}),
	}
}

// Load replaces the in-memory set with the persisted one.
func (r *SubscriptionRegistry) Load(ctx context.Context) error {
	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	stored, err := r.store.GetAddresses(ctx)
	if err != nil {
		return apperr.NewPersistenceErr("failed to load watched addresses", err)
	}

	next := make(map[string]struct{}, len(stored))
	for _, a := range stored {
		if a != "" {
			next[a] = struct{}{}
		}
	}

	r.mu.Lock()
	r.addrs = next
	r.mu.Unlock()

	imetrics.Watch().WatchedAddresses.Set(float64(len(next)))
	r.log.Info("Loaded watched addresses", "count", len(next))
	return nil
}

// Add inserts the addresses not already watched and returns exactly those, in
// input order. A persistence failure is returned alongside the result; the
// in-memory set keeps the new addresses either way.
func (r *SubscriptionRegistry) Add(ctx context.Context, addrs []string) ([]string, error) {
	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	r.mu.Lock()
	added := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if _, ok := r.addrs[a]; ok {
			continue
		}
		r.addrs[a] = struct{}{}
		added = append(added, a)
	}
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	if len(added) == 0 {
		return added, nil
	}
	imetrics.Watch().MutationsTotal.WithLabelValues("add").Add(float64(len(added)))
	imetrics.Watch().WatchedAddresses.Set(float64(len(snapshot)))
	return added, r.persist(ctx, snapshot)
}

// Remove drops the watched addresses among addrs and returns exactly those.
func (r *SubscriptionRegistry) Remove(ctx context.Context, addrs []string) ([]string, error) {
	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	r.mu.Lock()
	removed := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if _, ok := r.addrs[a]; !ok {
			continue
		}
		delete(r.addrs, a)
		removed = append(removed, a)
	}
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	if len(removed) == 0 {
		return removed, nil
	}
	imetrics.Watch().MutationsTotal.WithLabelValues("remove").Add(float64(len(removed)))
	imetrics.Watch().WatchedAddresses.Set(float64(len(snapshot)))
	return removed, r.persist(ctx, snapshot)
}

// Contains is the hot-path membership check used by the dispatcher.
func (r *SubscriptionRegistry) Contains(address string) bool {
	r.mu.RLock()
	_, ok := r.addrs[address]
	r.mu.RUnlock()
	return ok
}

// List returns a sorted snapshot of the watch set.
func (r *SubscriptionRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *SubscriptionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.addrs)
}

func (r *SubscriptionRegistry) snapshotLocked() []string {
	out := make([]string, 0, len(r.addrs))
	for a := range r.addrs {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func (r *SubscriptionRegistry) persist(ctx context.Context, snapshot []string) error {
	if err := r.store.SetAddresses(ctx, snapshot); err != nil {
		imetrics.Watch().PersistErrsTotal.Inc()
		imetrics.App().ErrorsTotal.WithLabelValues(imetrics.ComponentRegistry, "persist").Inc()
		r.log.Error("Failed to persist watched addresses", "count", len(snapshot), "err", err)
		return apperr.NewPersistenceErr("failed to persist watched addresses", err)
	}
	return nil
}
