// Package session holds the cipher state of the two lock channels.
//
// Both channels encipher only the first 16 bytes of each frame with
// AES-128 and never pad. They differ in everything else:
//
//   - Classic: CBC with an all-zero IV. The chain is never reset once
//     keyed, so every frame advances the running state of its direction
//     by one block. Frames carry the 8-bit simple checksum.
//   - Secure: ECB, no IV and no chaining. Keyed first with the offline
//     key and re-keyed with the derived session key during the
//     handshake. Frames carry the 32-bit security checksum.
//
// Sessions are not safe for concurrent use. Each is owned by one
// lock connection and must be Reset when that connection ends.
package session
