package keepalive

import "github.com/backkem/p2pcam/pkg/protocol"

// Encoder produces the periodic "continue streaming" packets of a session.
// It is not safe for concurrent use; a session owns exactly one encoder.
type Encoder struct {
	state State
	sent  uint64
}

// NewEncoder returns an encoder in the initial state.
func NewEncoder() *Encoder {
	return &Encoder{state: InitialState()}
}

// Observe is called once per received fragment with the session-wide
// fragment index (starting at 1). It returns a keepalive packet on every
// KeepAliveInterval-th fragment, and rotates the low digit window on every
// BaseRotationInterval-th fragment.
func (e *Encoder) Observe(fragmentIndex uint64) ([]byte, bool) {
	if fragmentIndex == 0 || fragmentIndex%protocol.KeepAliveInterval != 0 {
		return nil, false
	}

	rotate := fragmentIndex%protocol.BaseRotationInterval == 0
	next, packet := e.state.Next(rotate)
	e.state = next
	e.sent++
	return packet, true
}

// State returns the current odometer state.
func (e *Encoder) State() State {
	return e.state
}

// Sent returns the number of packets produced since the last reset.
func (e *Encoder) Sent() uint64 {
	return e.sent
}

// Reset returns the encoder to the initial state.
func (e *Encoder) Reset() {
	e.state = InitialState()
	e.sent = 0
}
