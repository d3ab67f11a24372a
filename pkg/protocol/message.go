package protocol

import "slices"

// Message identifies one of the fixed control messages sent to the camera.
type Message int

const (
	// MessageDiscover opens the exchange (43 bytes).
	MessageDiscover Message = iota
	// MessageStatusRequest1 is the first status request (13 bytes, carries the nonce).
	MessageStatusRequest1
	// MessageStatusRequest2 is the second status request (13 bytes, carries the nonce).
	MessageStatusRequest2
	// MessageStatusRequest3 is the third status request (13 bytes, carries the nonce).
	MessageStatusRequest3
	// MessageStreamSetup1 asks for stream parameters (212 bytes).
	MessageStreamSetup1
	// MessageStreamSetup2 precedes the stream start (34 bytes).
	MessageStreamSetup2
	// MessageStreamSetup3 starts streaming (119 bytes).
	MessageStreamSetup3
)

// String returns the message name.
func (m Message) String() string {
	switch m {
	case MessageDiscover:
		return "Discover"
	case MessageStatusRequest1:
		return "StatusRequest1"
	case MessageStatusRequest2:
		return "StatusRequest2"
	case MessageStatusRequest3:
		return "StatusRequest3"
	case MessageStreamSetup1:
		return "StreamSetup1"
	case MessageStreamSetup2:
		return "StreamSetup2"
	case MessageStreamSetup3:
		return "StreamSetup3"
	default:
		return "Unknown"
	}
}

// IsValid returns true if m is a known message.
func (m Message) IsValid() bool {
	return m >= MessageDiscover && m <= MessageStreamSetup3
}

// CarriesNonce returns true for the 13-byte status templates.
func (m Message) CarriesNonce() bool {
	switch m {
	case MessageStatusRequest1, MessageStatusRequest2, MessageStatusRequest3:
		return true
	default:
		return false
	}
}

func (m Message) template() []byte {
	switch m {
	case MessageDiscover:
		return discoverTemplate
	case MessageStatusRequest1:
		return statusRequest1Template
	case MessageStatusRequest2:
		return statusRequest2Template
	case MessageStatusRequest3:
		return statusRequest3Template
	case MessageStreamSetup1:
		return streamSetup1Template
	case MessageStreamSetup2:
		return streamSetup2Template
	case MessageStreamSetup3:
		return streamSetup3Template
	default:
		return nil
	}
}

// Bytes returns a fresh copy of the message template.
// Unknown messages return nil.
func (m Message) Bytes() []byte {
	t := m.template()
	if t == nil {
		return nil
	}
	out := make([]byte, len(t))
	copy(out, t)
	return out
}

// Build returns the message with the nonce applied. The nonce is only written
// into messages that carry one; others are returned unchanged.
func (m Message) Build(nonce byte) []byte {
	b := m.Bytes()
	if b != nil && m.CarriesNonce() {
		b[NonceOffset] = nonce
	}
	return b
}

// KeepAlivePrefix returns the keepalive prefix for the given digit count.
// Counts outside 1..MaxDigits are clamped.
func KeepAlivePrefix(digits int) []byte {
	if digits < 1 {
		digits = 1
	}
	if digits > MaxDigits {
		digits = MaxDigits
	}
	p := make([]byte, len(keepAlivePrefixTemplate))
	copy(p, keepAlivePrefixTemplate)
	// 1 digit: 0x20/0x1e, each extra digit adds 0x10/0x01.
	p[2] = byte(0x20 + 0x10*(digits-1))
	p[7] = byte(0x1e + (digits - 1))
	return p
}

// KeepAlivePacket assembles a keepalive from its encoded digits, most
// significant first.
func KeepAlivePacket(digits []byte) []byte {
	prefix := KeepAlivePrefix(len(digits))
	out := make([]byte, 0, len(prefix)+len(digits)+len(keepAliveTrailer))
	out = append(out, prefix...)
	out = append(out, digits...)
	out = append(out, keepAliveTrailer...)
	return out
}

// IsStartOfImage reports whether a fragment carries the JPEG SOI marker right
// after the start-of-image header.
func IsStartOfImage(fragment []byte) bool {
	return len(fragment) >= MinFragmentLength &&
		fragment[StartHeaderLength] == MarkerPrefix &&
		fragment[StartHeaderLength+1] == MarkerSOI
}

// IsStreamAck1Length reports whether n is an accepted stream setup 1 reply length.
func IsStreamAck1Length(n int) bool {
	return slices.Contains(StreamAck1Lengths, n)
}

// IsStreamAck2Length reports whether n is an accepted stream setup 2/3 reply length.
func IsStreamAck2Length(n int) bool {
	return slices.Contains(StreamAck2Lengths, n)
}

