package bridge

import "time"

// State is the connection state of a bridge.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateBackoff
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateBackoff:
		return "backoff"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is a point-in-time snapshot of a bridge.
type Status struct {
	TenantID string `json:"tenant_id"`
	State    State  `json:"state"`

	// BackoffMillis is the current reconnect delay while in StateBackoff.
	BackoffMillis int64 `json:"backoff_ms"`

	// AttemptID identifies the most recent connect attempt.
	AttemptID string `json:"attempt_id,omitempty"`

	// LastError is the error that caused the most recent backoff.
	LastError string `json:"last_error,omitempty"`

	// ConnectedSince is set while streaming.
	ConnectedSince *time.Time `json:"connected_since,omitempty"`

	// Restarts counts worker restarts after a panic.
	Restarts int `json:"restarts"`
}
