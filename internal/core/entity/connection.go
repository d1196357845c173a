package entity

import "time"

// ConnectionState is the upstream feed connection state. It is owned by the
// feed supervisor and read-only everywhere else.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

var connectionStateNames = [...]string{
	StateDisconnected: "disconnected",
	StateConnecting:   "connecting",
	StateConnected:    "connected",
	StateReconnecting: "reconnecting",
	StateFailed:       "failed",
}

// AllConnectionStates lists every state in declaration order.
var AllConnectionStates = []ConnectionState{
	StateDisconnected, StateConnecting, StateConnected, StateReconnecting, StateFailed,
}

func (s ConnectionState) String() string {
	if s < 0 || int(s) >= len(connectionStateNames) {
		return "unknown"
	}
	return connectionStateNames[s]
}

// Status is the management view of the relay.
type Status struct {
	Connected    bool      `json:"wssConnected"`
	State        string    `json:"state"`
	Retries      int       `json:"retries"`
	WatchedCount int       `json:"subscribedCount"`
	WebhookSet   bool      `json:"webhookSet"`
	ServerTime   time.Time `json:"serverTime"`
}
