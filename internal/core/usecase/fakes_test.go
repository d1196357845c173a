package usecase

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/pancudaniel7/address-relay-service/internal/core/entity"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/apperr"
)

type stubLogger struct{}

func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}

type memStore struct {
	mu        sync.Mutex
	addrs     []string
	url       string
	logs      []entity.TransactionRecord
	retention int

	setAddrErr error
	setURLErr  error
	appendErr  error
	readErr    error
	setCalls   int
}

var recordValidator = validator.New()

func newMemStore() *memStore { return &memStore{retention: 100} }

func (m *memStore) GetAddresses(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.addrs...), nil
}

func (m *memStore) SetAddresses(_ context.Context, addrs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setAddrErr != nil {
		return m.setAddrErr
	}
	m.addrs = append([]string(nil), addrs...)
	return nil
}

func (m *memStore) GetWebhookURL(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url, nil
}

func (m *memStore) SetWebhookURL(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setURLErr != nil {
		return m.setURLErr
	}
	m.url = url
	return nil
}

func (m *memStore) AppendLog(_ context.Context, rec entity.TransactionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	if err := recordValidator.Struct(rec); err != nil {
		return apperr.NewInvalidArgErr("invalid transaction record", err)
	}
	m.logs = append([]entity.TransactionRecord{rec}, m.logs...)
	if len(m.logs) > m.retention {
		m.logs = m.logs[:m.retention]
	}
	return nil
}

func (m *memStore) ReadLog(_ context.Context, limit int) ([]entity.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	if limit > len(m.logs) {
		limit = len(m.logs)
	}
	return append([]entity.TransactionRecord(nil), m.logs[:limit]...), nil
}

func (m *memStore) Close() error { return nil }

type fakeFeed struct {
	mu         sync.Mutex
	state      entity.ConnectionState
	retries    int
	subscribed [][]string
}

func (f *fakeFeed) State() entity.ConnectionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeFeed) Retries() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.retries
}

func (f *fakeFeed) Subscribe(_ context.Context, addrs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == entity.StateConnected {
		f.subscribed = append(f.subscribed, addrs)
	}
	return nil
}

type delivery struct {
	url string
	rec entity.TransactionRecord
}

type recordingDeliverer struct {
	mu    sync.Mutex
	calls []delivery
}

func (r *recordingDeliverer) Deliver(url string, rec entity.TransactionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, delivery{url: url, rec: rec})
}

type recordingPublisher struct {
	mu   sync.Mutex
	recs []entity.TransactionRecord
}

func (r *recordingPublisher) Publish(_ context.Context, rec entity.TransactionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
}
