package publish

import (
	"context"
	stdErrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/pancudaniel7/address-relay-service/internal/core/entity"
)

type fakeKgo struct {
	mu       sync.Mutex
	produced []*kgo.Record
	prodErr  error
	flushErr error
	closed   bool
}

func (f *fakeKgo) Produce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	f.mu.Lock()
	f.produced = append(f.produced, r)
	err := f.prodErr
	f.mu.Unlock()
	promise(r, err)
}

func (f *fakeKgo) Flush(context.Context) error { return f.flushErr }

func (f *fakeKgo) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

type testLogger struct{}

func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}
func (testLogger) Debug(string, ...any) {}
func (testLogger) Trace(string, ...any) {}
func (testLogger) Fatal(string, ...any) {}

var baseConfig = Config{
	Brokers:               []string{"127.0.0.1:9092"},
	Topic:                 "address-transactions",
	ClientID:              "relay",
	MaxRetryAttempts:      1,
	RetryInitialBackoffMS: 1,
	RetryMaxBackoffMS:     2,
	RetryJitter:           0.1,
	WriteTimeoutSeconds:   1,
}

func withFakeClient(t *testing.T, fk *fakeKgo) {
	t.Helper()
	old := newKgoClient
	t.Cleanup(func() { newKgoClient = old })
	newKgoClient = func(...kgo.Opt) (kgoClient, error) { return fk, nil }
}

func TestNewKafkaPublisher_InvalidConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{name: "empty", cfg: Config{}},
		{name: "blank_broker", cfg: func() Config { c := baseConfig; c.Brokers = []string{""}; return c }()},
		{name: "no_topic", cfg: func() Config { c := baseConfig; c.Topic = ""; return c }()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewKafkaPublisher(testLogger{}, tc.cfg, validator.New())
			require.Error(t, err)
		})
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	rec := entity.TransactionRecord{
		Address:    "bc1qaddr",
		TxID:       "cafe",
		Value:      1200,
		ObservedAt: time.Date(2024, 2, 2, 2, 2, 2, 0, time.UTC),
	}
	cases := []struct {
		name    string
		prodErr error
	}{
		{name: "success"},
		{name: "deadline", prodErr: context.DeadlineExceeded},
		{name: "fatal", prodErr: stdErrors.New("boom")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fk := &fakeKgo{prodErr: tc.prodErr}
			withFakeClient(t, fk)
			kp, err := NewKafkaPublisher(testLogger{}, baseConfig, validator.New())
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			kp.Publish(ctx, rec)

			require.Len(t, fk.produced, 1)
			r := fk.produced[0]
			require.Equal(t, "address-transactions", r.Topic)
			require.Equal(t, []byte("bc1qaddr"), r.Key)

			var got entity.TransactionRecord
			require.NoError(t, json.Unmarshal(r.Value, &got))
			require.Equal(t, rec, got)
		})
	}
}

func TestKafkaPublisher_BuildRecordHeaders(t *testing.T) {
	kp := &KafkaPublisher{cfg: Config{Topic: "t"}}
	r := kp.buildRecord(entity.TransactionRecord{Address: "A", TxID: "T"}, []byte("payload"))
	headers := map[string]string{}
	for _, h := range r.Headers {
		headers[h.Key] = string(h.Value)
	}
	require.Equal(t, map[string]string{"address": "A", "txid": "T"}, headers)
	require.Equal(t, []byte("payload"), r.Value)
}

func TestKafkaPublisher_Close(t *testing.T) {
	fk := &fakeKgo{}
	withFakeClient(t, fk)
	kp, err := NewKafkaPublisher(testLogger{}, baseConfig, validator.New())
	require.NoError(t, err)
	require.NoError(t, kp.Close(context.Background()))
	require.True(t, fk.closed)

	fk2 := &fakeKgo{flushErr: context.DeadlineExceeded}
	withFakeClient(t, fk2)
	kp, err = NewKafkaPublisher(testLogger{}, baseConfig, validator.New())
	require.NoError(t, err)
	require.Error(t, kp.Close(context.Background()))
	require.True(t, fk2.closed)
}

func TestHelpers(t *testing.T) {
	require.Equal(t, time.Duration(123)*time.Millisecond, millisecondsOrDefault(123, time.Second))
	require.Equal(t, time.Second, millisecondsOrDefault(0, time.Second))
	require.Equal(t, time.Duration(3)*time.Second, secondsOrDefault(3, time.Minute))
	require.Equal(t, time.Minute, secondsOrDefault(0, time.Minute))
}

func TestClassifyProduceError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: "none"},
		{name: "canceled", err: context.Canceled, want: "canceled"},
		{name: "deadline", err: context.DeadlineExceeded, want: "timeout"},
		{name: "unknown topic", err: kerr.UnknownTopicOrPartition, want: "unknown_topic"},
		{name: "retriable", err: kerr.NotEnoughReplicas, want: "retriable"},
		{name: "non-retriable", err: stdErrors.New("boom"), want: "fatal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, classifyProduceError(tc.err))
		})
	}
}
