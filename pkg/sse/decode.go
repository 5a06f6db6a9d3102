package sse

import (
	"encoding/json"
)

// rawPayload wraps frame data that is not valid JSON.
type rawPayload struct {
	Raw string `json:"raw"`
}

// Decode returns the frame data as a JSON value. Valid JSON is passed through
// verbatim and ok is true. Anything else is wrapped as {"raw": data} and ok is
// false; malformed upstream payloads never fail a frame.
func Decode(data string) (payload json.RawMessage, ok bool) {
	if json.Valid([]byte(data)) {
		return json.RawMessage(data), true
	}

	// Marshalling a struct with a single string field cannot fail.
	wrapped, _ := json.Marshal(rawPayload{Raw: data})
	return wrapped, false
}
