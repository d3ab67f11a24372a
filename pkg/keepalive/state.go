package keepalive

import (
	"bytes"
	"fmt"

	"github.com/backkem/p2pcam/pkg/protocol"
)

// State is the keepalive odometer.
//
// Index[0] selects the least significant digit inside the current two-symbol
// window of protocol.LowSymbols, starting at Base. Index[1..4] select the
// higher digits from protocol.DigitSymbols. Only the first Digits entries are
// live; stale higher entries are kept as the camera firmware does, and are
// re-seeded whenever a new digit is added.
type State struct {
	Digits int
	Index  [protocol.MaxDigits]int
	Base   int
}

// InitialState returns the state of a fresh session: one digit, all indices
// and the base offset at zero.
func InitialState() State {
	return State{Digits: 1}
}

// Symbols returns the encoded digits for s, most significant first.
func (s State) Symbols() []byte {
	out := make([]byte, 0, s.Digits)
	for d := s.Digits - 1; d >= 1; d-- {
		out = append(out, protocol.DigitSymbols[s.Index[d]])
	}
	return append(out, protocol.LowSymbols[s.Base+s.Index[0]])
}

// Next encodes s into a keepalive packet and returns the following state.
// When rotate is set, the base offset advances after the packet is built.
func (s State) Next(rotate bool) (State, []byte) {
	symbols := s.Symbols()
	packet := protocol.KeepAlivePacket(symbols)

	next := s.advance()

	// Empirical: the camera expects a restart at one digit once the five digit
	// counter reaches this value, well before the odometer would wrap itself.
	if len(symbols) == protocol.MaxDigits && bytes.HasPrefix(symbols, protocol.KeepAliveResetPattern) {
		next.Digits = 1
	}

	if rotate {
		next.Base = (next.Base + protocol.BaseRotationStep) % len(protocol.LowSymbols)
	}

	return next, packet
}

// advance increments the odometer by one tick.
func (s State) advance() State {
	s.Index[0]++
	if s.Digits == 1 {
		if s.Index[0] == protocol.LowWindow {
			s.Digits = 2
			s.Index[1] = 1
			s.Index[0] = 0
		}
		return s
	}

	if s.Index[0] == protocol.LowWindow {
		s.Index[1]++
		s.Index[0] = 0
	}

	// Carry through the middle digits.
	for d := 1; d < s.Digits-1; d++ {
		if s.Index[d] == len(protocol.DigitSymbols) {
			s.Index[d+1]++
			s.clearBelow(d + 1)
		}
	}

	top := s.Digits - 1
	if s.Index[top] != len(protocol.DigitSymbols) {
		return s
	}
	if s.Digits == protocol.MaxDigits {
		s.Digits = 1
		return s
	}
	s.Digits++
	s.Index[top+1] = 1
	s.clearBelow(top + 1)
	return s
}

func (s *State) clearBelow(d int) {
	for i := 0; i < d; i++ {
		s.Index[i] = 0
	}
}

// Validate checks that s can be encoded.
func (s State) Validate() error {
	if s.Digits < 1 || s.Digits > protocol.MaxDigits {
		return fmt.Errorf("%w: %d digits", ErrInvalidState, s.Digits)
	}
	if s.Base < 0 || s.Base+protocol.LowWindow > len(protocol.LowSymbols) || s.Base%protocol.BaseRotationStep != 0 {
		return fmt.Errorf("%w: base offset %d", ErrInvalidState, s.Base)
	}
	if s.Index[0] < 0 || s.Index[0] >= protocol.LowWindow {
		return fmt.Errorf("%w: low index %d", ErrInvalidState, s.Index[0])
	}
	for d := 1; d < s.Digits; d++ {
		if s.Index[d] < 0 || s.Index[d] >= len(protocol.DigitSymbols) {
			return fmt.Errorf("%w: digit %d index %d", ErrInvalidState, d, s.Index[d])
		}
	}
	return nil
}

// String returns the encoded digits in hex.
func (s State) String() string {
	return fmt.Sprintf("%d digits %x (base %d)", s.Digits, s.Symbols(), s.Base)
}
