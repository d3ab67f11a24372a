// Package protocol holds the wire constants of the P2P camera UDP protocol.
//
// The protocol is undocumented. Every template, symbol table and magic length
// in this package was captured from real camera traffic and must be kept
// byte-for-byte; there is no known derivation for any of them.
//
// Control messages are exposed through the Message enum. Bytes always returns
// a fresh copy, so callers may patch the result (for example with a nonce via
// Build) without affecting other sessions.
package protocol
