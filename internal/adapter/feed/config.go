package feed

// Config holds configuration for the upstream feed supervisor.
//
// URL is the websocket endpoint (ws/wss). A dropped or failed connection is
// retried after ReconnectDelayMS, at most MaxRetries times in a row; the
// counter resets on every successful connect.
type Config struct {
	URL                 string `validate:"required,uri"`
	HeartbeatIntervalMS int    `validate:"gt=0"`
	ReconnectDelayMS    int    `validate:"gte=0"`
	MaxRetries          int    `validate:"gte=0"`
	DialTimeoutSeconds  int    `validate:"gt=0"`
	WriteTimeoutSeconds int    `validate:"gt=0"`
	// MaxFrameBytes caps a single inbound frame; 0 leaves it unlimited.
	MaxFrameBytes int64 `validate:"gte=0"`
}
