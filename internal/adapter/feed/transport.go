package feed

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pancudaniel7/address-relay-service/internal/core/port"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/apperr"
)

const closeGracePeriod = time.Second

// wsConn adapts a gorilla websocket connection to port.FeedConn.
type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	closeOnce    sync.Once
	closeErr     error
}

func (c *wsConn) ReadFrame() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, apperr.NewTransportErr("feed read failed", err)
	}
	return data, nil
}

func (c *wsConn) WriteFrame(data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return apperr.NewTransportErr("feed write deadline", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return apperr.NewTransportErr("feed write failed", err)
	}
	return nil
}

// Close sends a best-effort close frame and closes the socket. Safe to call
// more than once; a pending ReadFrame returns an error.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// NewWebsocketDialer returns a FeedDialer for cfg.URL. The handshake is
// bounded by the context deadline the supervisor sets per attempt.
func NewWebsocketDialer(cfg *Config) port.FeedDialer {
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: time.Duration(cfg.DialTimeoutSeconds) * time.Second,
	}
	writeTimeout := time.Duration(cfg.WriteTimeoutSeconds) * time.Second

	return func(ctx context.Context) (port.FeedConn, error) {
		conn, resp, err := dialer.DialContext(ctx, cfg.URL, nil)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			return nil, apperr.NewTransportErr("feed dial failed", err)
		}
		if cfg.MaxFrameBytes > 0 {
			conn.SetReadLimit(cfg.MaxFrameBytes)
		}
		return &wsConn{conn: conn, writeTimeout: writeTimeout}, nil
	}
}
