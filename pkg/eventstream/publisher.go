package eventstream

import "context"

// Publisher publishes bridged events to the fan-out transport that delivers
// them to browser sessions.
type Publisher interface {
	Publish(ctx context.Context, msg *Message) error
	Close() error
}
