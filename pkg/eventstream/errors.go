package eventstream

import "errors"

// ErrNilMessage indicates a nil message was provided to a publisher.
var ErrNilMessage = errors.New("nil message")

// ErrUnknownProvider is returned for an unrecognised publisher provider.
var ErrUnknownProvider = errors.New("unknown publisher provider")
