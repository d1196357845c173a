package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/pancudaniel7/address-relay-service/internal/core/entity"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/apperr"
)

func newTestWatchService(st *memStore, feed *fakeFeed) (*WatchService, *WebhookTarget) {
	target := NewWebhookTarget()
	reg := NewSubscriptionRegistry(stubLogger{}, st)
	svc := NewWatchService(stubLogger{}, validator.New(), reg, feed, st, target, 100)
	svc.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc, target
}

func TestWatchService_SubscribeValidation(t *testing.T) {
	cases := []struct {
		name  string
		addrs []string
	}{
		{name: "nil", addrs: nil},
		{name: "empty", addrs: []string{}},
		{name: "blank_entry", addrs: []string{"a", ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newMemStore()
			feed := &fakeFeed{state: entity.StateConnected}
			svc, _ := newTestWatchService(st, feed)

			_, err := svc.Subscribe(context.Background(), tc.addrs)
			require.True(t, apperr.IsInvalidArg(err))
			_, err = svc.Unsubscribe(context.Background(), tc.addrs)
			require.True(t, apperr.IsInvalidArg(err))

			require.Empty(t, svc.ListWatched())
			require.Zero(t, st.setCalls)
			require.Empty(t, feed.subscribed)
		})
	}
}

func TestWatchService_SubscribePushesDeltaWhenConnected(t *testing.T) {
	ctx := context.Background()
	feed := &fakeFeed{state: entity.StateConnected}
	svc, _ := newTestWatchService(newMemStore(), feed)

	res, err := svc.Subscribe(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, res.Changed)
	require.Equal(t, []string{"a", "b"}, res.Watching)

	res, err = svc.Subscribe(ctx, []string{"b", "c"})
	require.NoError(t, err)
	require.Equal(t, []string{"c"}, res.Changed)
	require.Equal(t, []string{"a", "b", "c"}, res.Watching)

	res, err = svc.Subscribe(ctx, []string{"c"})
	require.NoError(t, err)
	require.Empty(t, res.Changed)

	require.Equal(t, [][]string{{"a", "b"}, {"c"}}, feed.subscribed)

}

func TestWatchService_UnsubscribeIsLocalOnly(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	feed := &fakeFeed{state: entity.StateConnected}
	svc, _ := newTestWatchService(st, feed)

	_, err := svc.Subscribe(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)

	res, err := svc.Unsubscribe(ctx, []string{"a", "zz"})
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, res.Changed)
	require.Equal(t, []string{"b", "c"}, res.Watching)

	require.Equal(t, [][]string{{"a", "b", "c"}}, feed.subscribed)
	persisted, err := st.GetAddresses(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"b", "c"}, persisted)
}

func TestWatchService_SubscribeWhileDisconnected(t *testing.T) {
	feed := &fakeFeed{state: entity.StateReconnecting}
	svc, _ := newTestWatchService(newMemStore(), feed)

	res, err := svc.Subscribe(context.Background(), []string{"a"})
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, res.Changed)
	require.Empty(t, feed.subscribed)
}

func TestWatchService_PersistFailureDoesNotFail(t *testing.T) {
	st := newMemStore()
	st.setAddrErr = errors.New("down")
	st.setURLErr = errors.New("down")
	svc, target := newTestWatchService(st, &fakeFeed{})

	res, err := svc.Subscribe(context.Background(), []string{"a"})
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, res.Watching)

	require.NoError(t, svc.SetWebhook(context.Background(), "http://hook.local/in"))
	url, ok := target.Get()
	require.True(t, ok)
	require.Equal(t, "http://hook.local/in", url)
}

func TestWatchService_SetWebhook(t *testing.T) {
	cases := []struct {
		url     string
		wantErr bool
	}{
		{url: "http://example.com/hook"},
		{url: "https://example.com:8443/a?b=c"},
		{url: "ftp://x", wantErr: true},
		{url: "example.com/hook", wantErr: true},
		{url: "", wantErr: true},
		{url: "not a url", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.url, func(t *testing.T) {
			st := newMemStore()
			svc, target := newTestWatchService(st, &fakeFeed{})

			err := svc.SetWebhook(context.Background(), tc.url)
			if tc.wantErr {
				require.True(t, apperr.IsInvalidArg(err))
				_, ok := target.Get()
				require.False(t, ok)
				require.Empty(t, st.url)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.url, st.url)
		})
	}
}

func TestWatchService_ReadLogs(t *testing.T) {
	st := newMemStore()
	for i := 0; i < 120; i++ {
		_ = st.AppendLog(context.Background(), entity.TransactionRecord{Address: "a", TxID: string(rune('a' + i%26))})
	}
	svc, _ := newTestWatchService(st, &fakeFeed{})

	cases := []struct {
		limit int
		want  int
	}{
		{limit: 0, want: DefaultReadLimit},
		{limit: -3, want: DefaultReadLimit},
		{limit: 5, want: 5},
		{limit: 1000, want: 100},
	}
	for _, tc := range cases {
		recs, err := svc.ReadLogs(context.Background(), tc.limit)
		require.NoError(t, err)
		require.Len(t, recs, tc.want)
	}

	st.readErr = errors.New("boom")
	_, err := svc.ReadLogs(context.Background(), 5)
	var pe *apperr.PersistenceErr
	require.ErrorAs(t, err, &pe)
}

func TestWatchService_StatusAndBootstrap(t *testing.T) {
	st := newMemStore()
	st.addrs = []string{"x", "y"}
	st.url = "http://hook/"
	feed := &fakeFeed{state: entity.StateConnected, retries: 0}
	svc, _ := newTestWatchService(st, feed)

	require.NoError(t, svc.Bootstrap(context.Background()))
	status := svc.Status(context.Background())
	require.Equal(t, entity.Status{
		Connected:    true,
		State:        "connected",
		Retries:      0,
		WatchedCount: 2,
		WebhookSet:   true,
		ServerTime:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}, status)

	feed.state = entity.StateFailed
	feed.retries = 3
	status = svc.Status(context.Background())
	require.False(t, status.Connected)
	require.Equal(t, "failed", status.State)
	require.Equal(t, 3, status.Retries)
}
