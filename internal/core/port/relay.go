package port

import (
	"context"

	"github.com/pancudaniel7/address-relay-service/internal/core/entity"
)

// WebhookDeliverer relays a matched record to url. Deliver returns
// immediately; the outcome is reported by the implementation, not the caller.
type WebhookDeliverer interface {
	Deliver(url string, rec entity.TransactionRecord)
}

// TransactionPublisher mirrors matched records to a message broker. Publish
// must not block on the broker round trip.
type TransactionPublisher interface {
	Publish(ctx context.Context, rec entity.TransactionRecord)
}
