package handshake

import "errors"

var (
	// ErrNotResponding is the fatal outcome: the camera never answered the
	// first status request across consecutive attempts.
	ErrNotResponding = errors.New("handshake: camera not responding")

	// ErrStatusMismatch indicates no acceptable status reply within the read budget.
	ErrStatusMismatch = errors.New("handshake: status check failed")

	// ErrUnexpectedLength indicates a reply with a length not accepted at its step.
	ErrUnexpectedLength = errors.New("handshake: unexpected reply length")

	// ErrTimeout indicates a step saw no reply within the receive timeout.
	ErrTimeout = errors.New("handshake: reply timeout")
)
