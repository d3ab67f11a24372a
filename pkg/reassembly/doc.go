// Package reassembly rebuilds JPEG frames from camera image fragments.
//
// There is no acknowledgment or retransmission in the protocol. Loss is
// detected only through the 8-bit sequence number in byte 0 of every
// fragment: any gap drops the partial frame and accumulation starts over.
//
// A fragment whose bytes 15-16 are the JPEG SOI marker starts a new frame
// and loses its 15-byte header; every other fragment loses a 4-byte header.
// Once enough fragments are accumulated the buffer is scanned for the first
// SOI..EOI range, and anything after EOI seeds the next frame.
package reassembly
