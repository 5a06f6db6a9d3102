package sse

import (
	"bytes"
	"strings"
)

// MaxLineSize bounds the unterminated line fragment carried between chunks.
// A line that grows beyond this without a newline is discarded along with the
// frame being built.
const MaxLineSize = 1024 * 1024

const (
	fieldEvent = "event:"
	fieldData  = "data:"
)

// Accumulator is the parse state for one streaming connection. The zero value
// is ready to use. It is passed into Parser.Feed and returned updated, so the
// caller owns it outright: a new connection starts from a fresh zero value and
// any partially received frame from the previous connection is dropped.
type Accumulator struct {
	event string
	data  []string

	// partial holds the bytes after the last newline of the previous chunk.
	partial []byte

	// discarding is set after an oversize line was dropped. Lines are skipped
	// until the next frame terminator.
	discarding bool
}

// Pending reports whether the accumulator holds any state for an
// unfinished frame or line.
func (a Accumulator) Pending() bool {
	return a.event != "" || len(a.data) > 0 || len(a.partial) > 0
}

// Parser turns chunks of a text event-stream into frames.
type Parser struct {
	// DefaultEvent names frames that carry data but no "event:" line.
	// When empty, such frames are dropped.
	DefaultEvent string
}

// Feed parses chunk with a zero-config Parser.
func Feed(acc Accumulator, chunk []byte) (Accumulator, []Frame) {
	return Parser{}.Feed(acc, chunk)
}

// Feed splits chunk into lines and applies them to acc in order, returning the
// updated accumulator and every frame completed by this chunk.
//
// A chunk may end in the middle of a line. The unterminated fragment is kept in
// the accumulator and prepended to the next chunk, so feeding a stream in any
// number of pieces yields the same frames as feeding it whole.
func (p Parser) Feed(acc Accumulator, chunk []byte) (Accumulator, []Frame) {
	acc = acc.clone()

	var frames []Frame

	// buf aliases the caller's chunk unless a fragment is pending, in which
	// case it is a fresh slice owned by this Feed.
	buf := chunk
	owned := false
	if len(acc.partial) > 0 {
		buf = make([]byte, 0, len(acc.partial)+len(chunk))
		buf = append(append(buf, acc.partial...), chunk...)
		acc.partial = nil
		owned = true
	}

	for {
		idx := bytes.IndexByte(buf, '\n')
		if idx < 0 {
			break
		}

		line := strings.TrimSuffix(string(buf[:idx]), "\r")
		buf = buf[idx+1:]

		if frame, ok := p.applyLine(&acc, line); ok {
			frames = append(frames, frame)
		}
	}

	switch {
	case len(buf) == 0:
	case len(buf) > MaxLineSize:
		// Oversize line: drop it and the frame it belongs to.
		acc.reset()
		acc.discarding = true
	case owned:
		acc.partial = buf
	default:
		acc.partial = append([]byte(nil), buf...)
	}

	return acc, frames
}

// applyLine applies a single complete line to acc and returns a frame when the
// line terminates one.
func (p Parser) applyLine(acc *Accumulator, line string) (Frame, bool) {
	if line == "" {
		if acc.discarding {
			acc.discarding = false
			acc.reset()
			return Frame{}, false
		}

		frame, ok := p.complete(acc)
		acc.reset()
		return frame, ok
	}

	if acc.discarding {
		return Frame{}, false
	}

	switch {
	case strings.HasPrefix(line, fieldEvent):
		acc.event = strings.TrimSpace(line[len(fieldEvent):])
	case strings.HasPrefix(line, fieldData):
		acc.data = append(acc.data, strings.TrimSpace(line[len(fieldData):]))
	default:
		// Comments and unrecognised fields.
	}

	return Frame{}, false
}

func (p Parser) complete(acc *Accumulator) (Frame, bool) {
	name := acc.event
	if name == "" {
		if p.DefaultEvent == "" || len(acc.data) == 0 {
			return Frame{}, false
		}
		name = p.DefaultEvent
	}

	return Frame{
		Event: name,
		Data:  strings.Join(acc.data, "\n"),
	}, true
}

// reset clears the fields of the frame being built. The carried line fragment
// is left alone.
func (a *Accumulator) reset() {
	a.event = ""
	a.data = nil
}

// clone copies the data lines held by a so that appends during a Feed never
// write into a backing array still referenced by the caller's copy. partial
// is shared: Feed only reads it.
func (a Accumulator) clone() Accumulator {
	out := a
	if a.data != nil {
		out.data = append([]string(nil), a.data...)
	}
	return out
}
