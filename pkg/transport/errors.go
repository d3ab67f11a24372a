package transport

import "errors"

// Transport errors.
var (
	// ErrClosed is returned when an operation is attempted on a closed transport.
	ErrClosed = errors.New("transport: closed")

	// ErrInvalidAddress is returned when the camera address is missing or cannot be resolved.
	ErrInvalidAddress = errors.New("transport: invalid address")

	// ErrBind is returned when the local socket cannot be bound.
	ErrBind = errors.New("transport: bind failed")

	// ErrTimeout is returned when no datagram arrives within the receive timeout.
	ErrTimeout = errors.New("transport: receive timeout")

	// ErrMessageTooLarge is returned when a message exceeds the maximum datagram size.
	ErrMessageTooLarge = errors.New("transport: message too large")
)
