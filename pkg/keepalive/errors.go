package keepalive

import "errors"

// ErrInvalidState is returned when a State cannot be encoded.
var ErrInvalidState = errors.New("keepalive: invalid state")
