// Package protocol implements the binary encoding of host tree mutations.
//
// Each commit's host mutations can be journaled and shipped as a
// MutationFrame to remote observers (the inspection server streams them
// over a websocket). Remote clients send native events back as
// EventMessage frames.
//
// # Frame Format
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (4 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Encoding
//
// Integers are protobuf-style varints, strings are varint length-prefixed
// UTF-8, floats are IEEE 754 big-endian.
package protocol
