// Package sse provides an incremental parser for the text event-stream framing
// served by the Gateway's message stream. It is designed to be fed raw network
// reads of arbitrary size and yield completed frames as they become available.
//
// The parser understands the subset of the framing the Gateway emits: "event:"
// and "data:" fields, with a blank line terminating each frame. All other lines
// ("id:", "retry:", ":" comments) are ignored.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// Frame represents a single completed event, delimited by a blank line in the
// upstream byte stream.
type Frame struct {
	// Event is the event name from the "event:" field. Frames are only emitted
	// when an event name is present.
	Event string

	// Data is the concatenated contents of all "data:" lines for this frame,
	// joined with "\n" in arrival order.
	Data string
}
