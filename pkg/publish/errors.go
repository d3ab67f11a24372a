package publish

import "errors"

var (
	// ErrBrokerRequired is returned when no broker is configured.
	ErrBrokerRequired = errors.New("publish: broker required")

	// ErrInvalidQoS is returned for a QoS above 2.
	ErrInvalidQoS = errors.New("publish: QoS must be 0, 1 or 2")

	// ErrNotConnected is returned when publishing before Connect.
	ErrNotConnected = errors.New("publish: not connected")

	// ErrTimeout is returned when the broker does not acknowledge in time.
	ErrTimeout = errors.New("publish: broker timeout")
)
