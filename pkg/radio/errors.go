package radio

import "errors"

// Transport errors.
var (
	// ErrNotConnected is returned for operations on an unconnected link.
	ErrNotConnected = errors.New("radio: link not connected")

	// ErrAlreadyConnected is returned when Connect is called twice.
	ErrAlreadyConnected = errors.New("radio: link already connected")

	// ErrClosed is returned for operations on a closed link.
	ErrClosed = errors.New("radio: link closed")

	// ErrUnknownEndpoint is returned for an endpoint outside the known set.
	ErrUnknownEndpoint = errors.New("radio: unknown endpoint")
)
