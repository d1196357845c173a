package filestore

// Config for the file-backed persistence adapter.
type Config struct {
	// Dir holds addresses.json, webhook.json and transactions.json.
	Dir string `validate:"required"`
	// LogRetention is the capacity of the transaction log.
	LogRetention int `validate:"required,gte=1"`
}
