package eventstream

import (
	"encoding/json"
)

const (
	// TopicPrefix namespaces per-tenant topics.
	TopicPrefix = "messages:"

	// EventMessage is the event name every bridged frame is published under.
	EventMessage = "message_event"
)

// Topic returns the pub/sub topic for a tenant.
func Topic(tenantID string) string {
	return TopicPrefix + tenantID
}

// Envelope is the payload published for each upstream frame. Data is either
// the decoded upstream payload or a {"raw": ...} wrapper.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Message is a transport-neutral publish request.
type Message struct {
	// Topic is the subscriber channel, "messages:<tenant>".
	Topic string `json:"topic"`

	// Event is the event name subscribers receive, EventMessage for frames.
	Event string `json:"event"`

	// TenantID is the tenant the message belongs to.
	TenantID string `json:"tenant_id"`

	// Payload is the marshalled Envelope.
	Payload json.RawMessage `json:"payload"`
}

// NewMessage builds the message published for one frame of a tenant's stream.
func NewMessage(tenantID string, env Envelope) (*Message, error) {
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}

	return &Message{
		Topic:    Topic(tenantID),
		Event:    EventMessage,
		TenantID: tenantID,
		Payload:  payload,
	}, nil
}
