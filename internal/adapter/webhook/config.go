package webhook

// Config for the webhook delivery client.
type Config struct {
	// TimeoutMS bounds one POST, connect to last response byte.
	TimeoutMS int `validate:"gt=0"`
	// MaxInFlight caps concurrent deliveries; extra ones are dropped.
	MaxInFlight int64 `validate:"gt=0"`
	UserAgent   string
}
