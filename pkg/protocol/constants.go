package protocol

import "time"

// Network defaults.
const (
	// DefaultLocalPort is the UDP port the client binds to.
	DefaultLocalPort = 5123

	// DefaultRemotePort is the UDP port cameras listen on.
	DefaultRemotePort = 5000

	// DefaultReceiveTimeout bounds every blocking receive.
	DefaultReceiveTimeout = 2 * time.Second

	// MaxDatagramSize is the largest payload read from or written to the socket.
	// Image fragments are typically 904 bytes.
	MaxDatagramSize = 1024
)

// Handshake constants.
const (
	// NonceOffset is the byte offset of the per-attempt nonce inside the three
	// 13-byte status templates.
	NonceOffset = 6

	// NonceMax is the largest nonce value. Bit 6 of the nonce byte is never set.
	NonceMax = 16

	// StatusReplyLength is the length of every status and confirm reply.
	StatusReplyLength = 13

	// StatusAckBit is OR'd into byte 4 of the status request by the camera.
	StatusAckBit = 0x10

	// StatusNonceBit must not be echoed back in byte 6 of a status reply.
	StatusNonceBit = 0x40

	// SpuriousReplyLength is the length of an out-of-order reply the camera
	// sometimes emits around the stream setup steps.
	SpuriousReplyLength = 42
)

// StreamAck1Lengths are the accepted reply lengths after stream setup 1.
var StreamAck1Lengths = []int{155, 156}

// StreamAck2Lengths are the accepted reply lengths after stream setup 2 and 3.
// Camera models differ in the length they send back.
var StreamAck2Lengths = []int{368, 334}

// Fragment layout.
const (
	// MinFragmentLength is the shortest datagram treated as image data.
	MinFragmentLength = 17

	// StartHeaderLength is the header stripped from a start-of-image fragment.
	StartHeaderLength = 15

	// ContinuationHeaderLength is the header stripped from a continuation fragment.
	ContinuationHeaderLength = 4

	// DefaultFragmentThreshold is the number of accepted fragments accumulated
	// before the buffer is scanned for a complete image. 80 fragments of ~904
	// bytes hold a 640x480 medium quality JPEG.
	DefaultFragmentThreshold = 80
)

// JPEG markers.
const (
	MarkerPrefix = 0xFF
	MarkerSOI    = 0xD8
	MarkerEOI    = 0xD9
)

// Keepalive constants.
const (
	// KeepAliveInterval is the number of received fragments between keepalives.
	KeepAliveInterval = 5

	// BaseRotationInterval is the number of received fragments between
	// rotations of the least significant digit's symbol window.
	BaseRotationInterval = 100

	// BaseRotationStep is how far the symbol window moves on each rotation.
	BaseRotationStep = 2

	// LowWindow is the number of symbols the least significant digit toggles through.
	LowWindow = 2

	// MaxDigits is the largest number of digits a keepalive carries.
	MaxDigits = 5
)

// KeepAliveResetPattern forces the keepalive counter back to one digit when a
// five digit value starts with it.
var KeepAliveResetPattern = []byte{0xdf, 0xdc, 0xdd, 0xd0}
