// Package frame implements the fixed 18-byte command frame shared by the
// classic and secure lock channels, together with the two checksum
// schemes that guard them.
//
// # Classic Frame
//
//	┌──────┬────────┬──────┬──────────┬───────────────────────┬────────┬──────┐
//	│ 0x00 │  0x01  │ 0x02 │   0x03   │      0x04 - 0x0F      │  0x10  │ 0x11 │
//	│magic │ opcode │      │ checksum │ payload (12 bytes)    │ marker │      │
//	└──────┴────────┴──────┴──────────┴───────────────────────┴────────┴──────┘
//
// Requests carry magic 0xEE, responses 0xBB or 0xAA. The simple checksum
// makes the 8-bit sum of all 18 bytes zero. Status responses carry the
// lock state code at offset 0x08.
//
// # Secure Frame
//
//	┌────────┬───────────┬─────────────────────┬───────────────────┬────────┬────────┐
//	│  0x00  │ 0x01-0x03 │     0x04 - 0x0B     │    0x0C - 0x0F    │  0x10  │  0x11  │
//	│ opcode │           │ payload (8 bytes)   │ security checksum │ marker │ offset │
//	└────────┴───────────┴─────────────────────┴───────────────────┴────────┴────────┘
//
// The security checksum is the two's complement of the sum of the first
// three little-endian 32-bit words.
//
// Only bytes [0x00, 0x10) are ever enciphered; the trailing two bytes
// travel in clear on both channels.
package frame
