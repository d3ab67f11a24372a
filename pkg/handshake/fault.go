package handshake

import (
	"fmt"
	"time"
)

// Step identifies a position in the handshake.
type Step int

const (
	StepIdle Step = iota
	StepAwaitStatus
	StepAwaitConfirm
	StepAwaitStreamAck1
	StepAwaitStreamAck2
	StepReady
)

// String returns the step name.
func (s Step) String() string {
	switch s {
	case StepIdle:
		return "Idle"
	case StepAwaitStatus:
		return "AwaitStatus"
	case StepAwaitConfirm:
		return "AwaitConfirm"
	case StepAwaitStreamAck1:
		return "AwaitStreamAck1"
	case StepAwaitStreamAck2:
		return "AwaitStreamAck2"
	case StepReady:
		return "Ready"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// FaultKind classifies a fault.
type FaultKind int

const (
	// FaultBind means the local socket could not be bound.
	FaultBind FaultKind = iota
	// FaultTimeout means no reply arrived within the receive timeout.
	FaultTimeout
	// FaultProtocolMismatch means a reply had the wrong length or content.
	FaultProtocolMismatch
	// FaultSocket means the socket failed while sending or receiving.
	FaultSocket
	// FaultNotResponding is fatal and is never retried.
	FaultNotResponding
)

// String returns the fault kind name.
func (k FaultKind) String() string {
	switch k {
	case FaultBind:
		return "BindFailure"
	case FaultTimeout:
		return "Timeout"
	case FaultProtocolMismatch:
		return "ProtocolMismatch"
	case FaultSocket:
		return "SocketFault"
	case FaultNotResponding:
		return "NotResponding"
	default:
		return fmt.Sprintf("FaultKind(%d)", int(k))
	}
}

// Backoff delays per fault class.
const (
	// TimeoutDelay follows a missing status reply.
	TimeoutDelay = 1 * time.Second
	// RestartDelay follows every other recoverable handshake fault.
	RestartDelay = 15 * time.Second
	// BindDelay follows a failure to bind the local port.
	BindDelay = 15 * time.Second
)

// Fault is a handshake failure with the delay to wait before the next attempt.
type Fault struct {
	Step  Step
	Kind  FaultKind
	Delay time.Duration
	Err   error
}

// Error implements error.
func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("handshake %s at %s (retry in %v): %v", f.Kind, f.Step, f.Delay, f.Err)
	}
	return fmt.Sprintf("handshake %s at %s (retry in %v)", f.Kind, f.Step, f.Delay)
}

// Unwrap returns the underlying error.
func (f *Fault) Unwrap() error {
	return f.Err
}

// Fatal reports whether the fault must not be retried.
func (f *Fault) Fatal() bool {
	return f.Kind == FaultNotResponding
}

func newFault(step Step, kind FaultKind, delay time.Duration, err error) *Fault {
	return &Fault{Step: step, Kind: kind, Delay: delay, Err: err}
}
