// Package keepalive encodes the "continue" packets that keep a camera streaming.
//
// Each packet carries a counter encoded as an odometer of vendor symbols. The
// least significant digit toggles between two symbols of a 20-symbol table;
// every second tick it carries into the next digit, drawn from a 10-symbol
// table, and so on up to five digits. The window of the low digit moves every
// 100 fragments. None of this is derivable from first principles; the tables
// and the early reset pattern live in package protocol and are kept verbatim.
//
// State.Next is a pure transition, which keeps the encoder testable against
// recorded captures. Encoder wraps it with the fragment-count driven timing.
package keepalive
