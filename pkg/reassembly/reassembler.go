package reassembly

import "github.com/backkem/p2pcam/pkg/protocol"

// Outcome is the result of feeding one fragment.
type Outcome int

const (
	// Accumulating means the fragment was consumed and no frame is ready yet.
	Accumulating Outcome = iota
	// FrameReady means a complete JPEG was extracted.
	FrameReady
	// Reset means the accumulated data was discarded.
	Reset
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Accumulating:
		return "Accumulating"
	case FrameReady:
		return "FrameReady"
	case Reset:
		return "Reset"
	default:
		return "Unknown"
	}
}

// Result is returned by Feed.
type Result struct {
	Outcome Outcome
	// Frame holds the complete JPEG when Outcome is FrameReady.
	Frame []byte
	// Cause describes why the buffer was discarded when Outcome is Reset.
	Cause ResetCause
}

// ResetCause tells why accumulated data was discarded.
type ResetCause int

const (
	// CauseNone is the zero value.
	CauseNone ResetCause = iota
	// CauseNoise means a datagram too short to be image data arrived.
	CauseNoise
	// CauseSequenceGap means a continuation fragment was lost.
	CauseSequenceGap
	// CauseNoFrame means the threshold was reached without a complete image.
	CauseNoFrame
)

// String returns the cause name.
func (c ResetCause) String() string {
	switch c {
	case CauseNone:
		return "None"
	case CauseNoise:
		return "Noise"
	case CauseSequenceGap:
		return "SequenceGap"
	case CauseNoFrame:
		return "NoFrame"
	default:
		return "Unknown"
	}
}

// Reassembler turns raw fragments into complete JPEG frames.
// It is not safe for concurrent use.
type Reassembler struct {
	buf       Buffer
	threshold int
	count     int
	lastSeq   byte
	received  uint64
}

// New returns a Reassembler that scans for a frame after threshold accepted
// fragments. A threshold below 1 selects protocol.DefaultFragmentThreshold.
func New(threshold int) *Reassembler {
	if threshold < 1 {
		threshold = protocol.DefaultFragmentThreshold
	}
	return &Reassembler{threshold: threshold}
}

// Feed consumes one datagram payload.
func (r *Reassembler) Feed(fragment []byte) Result {
	r.received++

	// Status packets and other noise in the middle of image data: start over.
	if len(fragment) < protocol.MinFragmentLength {
		r.discard()
		return Result{Outcome: Reset, Cause: CauseNoise}
	}

	seq := fragment[0]
	if protocol.IsStartOfImage(fragment) {
		r.buf.Reset()
		r.buf.Append(fragment[protocol.StartHeaderLength:])
		r.lastSeq = seq
		r.count = 1
	} else {
		// byte arithmetic wraps 255 -> 0.
		continuous := seq == r.lastSeq+1
		r.lastSeq = seq
		if !continuous {
			r.discard()
			return Result{Outcome: Reset, Cause: CauseSequenceGap}
		}
		r.buf.Append(fragment[protocol.ContinuationHeaderLength:])
		r.count++
	}

	if r.count < r.threshold {
		return Result{Outcome: Accumulating}
	}

	r.count = 0
	frame, ok := r.buf.Extract()
	if !ok {
		return Result{Outcome: Reset, Cause: CauseNoFrame}
	}
	return Result{Outcome: FrameReady, Frame: frame}
}

func (r *Reassembler) discard() {
	r.buf.Reset()
	r.count = 0
}

// Received returns the number of fragments fed since the last Clear. It is
// the session-wide fragment index used for keepalive timing.
func (r *Reassembler) Received() uint64 {
	return r.received
}

// Pending returns the number of accepted fragments since the last scan.
func (r *Reassembler) Pending() int {
	return r.count
}

// Buffered returns the number of bytes waiting in the accumulator.
func (r *Reassembler) Buffered() int {
	return r.buf.Len()
}

// Threshold returns the configured fragment threshold.
func (r *Reassembler) Threshold() int {
	return r.threshold
}

// Clear drops all state, including the fragment index and sequence tracking.
func (r *Reassembler) Clear() {
	r.discard()
	r.lastSeq = 0
	r.received = 0
}
