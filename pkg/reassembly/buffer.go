package reassembly

import "github.com/backkem/p2pcam/pkg/protocol"

// Buffer is the growable byte buffer a frame is accumulated in.
// It is owned by a single Reassembler and never shared.
type Buffer struct {
	data []byte
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Bytes returns the buffered bytes. The slice is only valid until the next
// mutation.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Reset empties the buffer, keeping its capacity.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
}

// Append adds p to the end of the buffer.
func (b *Buffer) Append(p []byte) {
	b.data = append(b.data, p...)
}

// Extract looks for the first SOI marker and the first EOI marker after it.
// If both are found it returns a copy of the inclusive SOI..EOI range and
// keeps only the bytes after EOI. Otherwise the buffer is emptied and ok is
// false.
func (b *Buffer) Extract() (frame []byte, ok bool) {
	soi := indexMarker(b.data, 0, protocol.MarkerSOI)
	if soi < 0 {
		b.Reset()
		return nil, false
	}
	eoi := indexMarker(b.data, soi+2, protocol.MarkerEOI)
	if eoi < 0 {
		b.Reset()
		return nil, false
	}

	end := eoi + 2
	frame = make([]byte, end-soi)
	copy(frame, b.data[soi:end])

	n := copy(b.data, b.data[end:])
	b.data = b.data[:n]
	return frame, true
}

// indexMarker returns the offset of the first 0xFF <marker> pair at or after
// from, or -1.
func indexMarker(data []byte, from int, marker byte) int {
	for i := from; i+1 < len(data); i++ {
		if data[i] == protocol.MarkerPrefix && data[i+1] == marker {
			return i
		}
	}
	return -1
}
