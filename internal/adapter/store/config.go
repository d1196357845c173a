package store

// Config contains connection and behavior options for the Redis-backed
// persistence adapter. The struct is validated via go-playground/validator tags.
type Config struct {
	Host               string `validate:"required,hostname|ip"`
	Port               string `validate:"required,numeric"`
	Password           string
	DB                 int `validate:"gte=0"`
	UseTLS             bool
	PoolSize           int `validate:"gte=0"`
	MaxRetries         int `validate:"gte=0"`
	DialTimeoutSeconds int `validate:"gte=0"`
	Keys               KeysConfig
	// LogRetention is the capacity of the transaction log list.
	LogRetention int `validate:"required,gte=1"`
}

// KeysConfig names the Redis keys. The defaults match the keys written by
// earlier deployments so existing data is picked up on upgrade.
type KeysConfig struct {
	Addresses string `validate:"required"`
	Webhook   string `validate:"required"`
	Logs      string `validate:"required"`
}
