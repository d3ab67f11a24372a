package camera

import "errors"

var (
	// ErrTargetRequired is returned when no camera address is configured.
	ErrTargetRequired = errors.New("camera: target address required")

	// ErrInvalidAddress is returned when an address is not an IP address.
	ErrInvalidAddress = errors.New("camera: invalid IP address")

	// ErrInvalidPort is returned when a port is outside 0-65535.
	ErrInvalidPort = errors.New("camera: invalid port")

	// ErrInvalidThreshold is returned when the fragment threshold is negative.
	ErrInvalidThreshold = errors.New("camera: invalid fragment threshold")

	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("camera: session closed")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("camera: push loop already running")
)
