package entity

import "time"

// TransactionRecord is one matched transaction notification, as logged and
// relayed. Records are immutable once appended to the log.
//
// The JSON shape doubles as the webhook payload:
// {"address","txid","value","timestamp"}.
type TransactionRecord struct {
	Address    string    `json:"address" validate:"required"`
	TxID       string    `json:"txid" validate:"required"`
	Value      float64   `json:"value"`
	ObservedAt time.Time `json:"timestamp"`
}
