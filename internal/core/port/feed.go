package port

import (
	"context"

	"github.com/pancudaniel7/address-relay-service/internal/core/entity"
)

// FeedConn is a single live connection to the upstream feed. ReadFrame is
// called from one goroutine only; WriteFrame and Close are serialized by the
// caller. Close must be idempotent and must unblock a pending ReadFrame.
type FeedConn interface {
	ReadFrame() ([]byte, error)
	WriteFrame(data []byte) error
	Close() error
}

// FeedDialer opens a new FeedConn.
type FeedDialer func(ctx context.Context) (FeedConn, error)

// FrameHandler consumes one inbound frame. A returned error is reported but
// never affects the connection.
type FrameHandler func(ctx context.Context, raw []byte) error

// FeedController is the management-facing side of the feed supervisor.
type FeedController interface {
	State() entity.ConnectionState
	Retries() int
	// Subscribe pushes an incremental subscribe when connected and is a no-op
	// otherwise. Removals are never sent upstream.
	Subscribe(ctx context.Context, addrs []string) error
}
