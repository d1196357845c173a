package port

import (
	"context"

	"github.com/pancudaniel7/address-relay-service/internal/core/entity"
)

// PersistenceAdapter is the durable home of the watch set, the webhook URL and
// the bounded transaction log. Implementations hold no relay logic and must
// be safe for concurrent use.
type PersistenceAdapter interface {
	GetAddresses(ctx context.Context) ([]string, error)
	// SetAddresses replaces the persisted watch set with addrs.
	SetAddresses(ctx context.Context, addrs []string) error

	// GetWebhookURL returns "" when no webhook is configured.
	GetWebhookURL(ctx context.Context) (string, error)
	SetWebhookURL(ctx context.Context, url string) error

	// AppendLog stores rec as the newest entry and evicts the oldest entries
	// beyond the configured retention.
	AppendLog(ctx context.Context, rec entity.TransactionRecord) error
	// ReadLog returns at most limit records, newest first.
	ReadLog(ctx context.Context, limit int) ([]entity.TransactionRecord, error)

	Close() error
}
