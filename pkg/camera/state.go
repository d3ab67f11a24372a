package camera

// State is the lifecycle state of a Session.
type State int

const (
	// StateUninitialized means no socket is bound.
	StateUninitialized State = iota

	// StateHandshaking means the handshake is running or waiting to retry.
	StateHandshaking

	// StateStreaming means the camera is streaming fragments.
	StateStreaming

	// StateFailed means the camera was declared not responding.
	// The next RetrieveImage call starts over.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateHandshaking:
		return "Handshaking"
	case StateStreaming:
		return "Streaming"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}
