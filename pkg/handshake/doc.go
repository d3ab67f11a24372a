// Package handshake implements the negotiation a P2P camera requires before
// it streams image fragments.
//
// The exchange is strictly sequential:
//
//	Idle
//	  -> discover + status request 1    AwaitStatus      (13 byte status reply)
//	  -> status request 2 + 3           AwaitConfirm     (13 byte reply)
//	  -> stream setup 1                 AwaitStreamAck1  (155 or 156 bytes)
//	  -> stream setup 2 + 3             AwaitStreamAck2  (368 or 334 bytes)
//	  -> Ready
//
// Replies are validated only by length, plus two byte checks on the status
// reply. A single 42 byte reply in front of either stream ack is discarded.
//
// A Machine runs one attempt per call to Run. Any failure is returned as a
// *Fault carrying the step it happened at and the delay the caller should
// wait before starting over from Idle; partial progress is never resumed.
package handshake
