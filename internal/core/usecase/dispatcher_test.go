package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pancudaniel7/address-relay-service/internal/pkg/apperr"
)

func newTestDispatcher(t *testing.T, watched ...string) (*EventDispatcher, *memStore, *WebhookTarget, *recordingDeliverer, *recordingPublisher) {
	t.Helper()
	st := newMemStore()
	reg := NewSubscriptionRegistry(stubLogger{}, st)
	if len(watched) > 0 {
		_, err := reg.Add(context.Background(), watched)
		require.NoError(t, err)
	}
	target := NewWebhookTarget()
	del := &recordingDeliverer{}
	pub := &recordingPublisher{}
	d := NewEventDispatcher(stubLogger{}, reg, st, target, del, pub)
	d.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3600)) }
	return d, st, target, del, pub
}

func TestHandleFrame_Outcomes(t *testing.T) {
	cases := []struct {
		name       string
		frame      string
		webhook    string
		wantErr    bool
		wantLogs   int
		wantDelivs int
	}{
		{
			name:       "watched_with_webhook",
			frame:      `{"data":{"address":"A","tx":{"txid":"t1","value":1500}}}`,
			webhook:    "http://hook/x",
			wantLogs:   1,
			wantDelivs: 1,
		},
		{
			name:     "watched_without_webhook",
			frame:    `{"data":{"address":"A","tx":{"txid":"t1","value":"1500"}}}`,
			wantLogs: 1,
		},
		{
			name:    "watched_missing_txid_ignored",
			frame:   `{"data":{"address":"A","tx":{"value":5}}}`,
			webhook: "http://hook/x",
		},
		{
			name:    "watched_empty_txid_ignored",
			frame:   `{"data":{"address":"A","tx":{"txid":"","value":5}}}`,
			webhook: "http://hook/x",
		},
		{
			name:    "unwatched",
			frame:   `{"data":{"address":"B","tx":{"txid":"t1","value":1}}}`,
			webhook: "http://hook/x",
		},
		{
			name:    "ping_reply_ignored",
			frame:   `{"id":"ping-1","data":{}}`,
			webhook: "http://hook/x",
		},
		{
			name:  "subscription_ack_ignored",
			frame: `{"id":"resub-1","data":{"subscribed":true}}`,
		},
		{
			name:    "malformed",
			frame:   `{"data":`,
			wantErr: true,
		},
		{
			name:    "empty",
			frame:   ``,
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, st, target, del, pub := newTestDispatcher(t, "A")
			if tc.webhook != "" {
				target.Set(tc.webhook)
			}

			err := d.HandleFrame(context.Background(), []byte(tc.frame))
			if tc.wantErr {
				var pe *apperr.ProtocolDecodeErr
				require.ErrorAs(t, err, &pe)
			} else {
				require.NoError(t, err)
			}
			require.Len(t, st.logs, tc.wantLogs)
			require.Len(t, del.calls, tc.wantDelivs)
			require.Len(t, pub.recs, tc.wantLogs)
		})
	}
}

func TestHandleFrame_RecordShape(t *testing.T) {
	d, st, target, del, _ := newTestDispatcher(t, "A")
	target.Set("https://hook.example/tx")

	require.NoError(t, d.HandleFrame(context.Background(), []byte(`{"data":{"address":"A","tx":{"txid":"abc","value":42.5}}}`)))

	require.Len(t, st.logs, 1)
	rec := st.logs[0]
	require.Equal(t, "A", rec.Address)
	require.Equal(t, "abc", rec.TxID)
	require.Equal(t, 42.5, rec.Value)
	require.Equal(t, time.UTC, rec.ObservedAt.Location())
	require.Equal(t, 11, rec.ObservedAt.Hour())

	require.Equal(t, "https://hook.example/tx", del.calls[0].url)
	require.Equal(t, rec, del.calls[0].rec)
}

func TestHandleFrame_PersistFailureStillRelays(t *testing.T) {
	d, st, target, del, _ := newTestDispatcher(t, "A")
	st.appendErr = errors.New("redis down")
	target.Set("http://hook/x")

	require.NoError(t, d.HandleFrame(context.Background(), []byte(`{"data":{"address":"A","tx":{"txid":"t","value":1}}}`)))
	require.Empty(t, st.logs)
	require.Len(t, del.calls, 1)
}

func TestHandleFrame_NilPublisher(t *testing.T) {
	st := newMemStore()
	reg := NewSubscriptionRegistry(stubLogger{}, st)
	_, _ = reg.Add(context.Background(), []string{"A"})
	d := NewEventDispatcher(stubLogger{}, reg, st, NewWebhookTarget(), &recordingDeliverer{}, nil)

	require.NoError(t, d.HandleFrame(context.Background(), []byte(`{"data":{"address":"A","tx":{"txid":"t","value":1}}}`)))
	require.Len(t, st.logs, 1)
}

func TestHandleFrame_UnsubscribedAfterwardIsFiltered(t *testing.T) {
	d, st, _, _, _ := newTestDispatcher(t, "A")
	frame := []byte(`{"data":{"address":"A","tx":{"txid":"t","value":1}}}`)

	require.NoError(t, d.HandleFrame(context.Background(), frame))
	_, err := d.watch.(*SubscriptionRegistry).Remove(context.Background(), []string{"A"})
	require.NoError(t, err)
	require.NoError(t, d.HandleFrame(context.Background(), frame))
	require.Len(t, st.logs, 1)
}
