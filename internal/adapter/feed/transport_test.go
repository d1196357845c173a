package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			mt, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			if err := c.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWebsocketDialer_RoundTripAndClose(t *testing.T) {
	srv := echoServer(t)
	cfg := testConfig()
	cfg.URL = "ws" + strings.TrimPrefix(srv.URL, "http")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := NewWebsocketDialer(cfg)(ctx)
	require.NoError(t, err)

	require.NoError(t, conn.WriteFrame([]byte(`{"id":"ping-1","method":"ping","params":{}}`)))
	got, err := conn.ReadFrame()
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"ping-1","method":"ping","params":{}}`, string(got))

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	_, err = conn.ReadFrame()
	require.Error(t, err)
}

func TestWebsocketDialer_Refused(t *testing.T) {
	srv := echoServer(t)
	cfg := testConfig()
	cfg.URL = "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewWebsocketDialer(cfg)(ctx)
	require.Error(t, err)
}
