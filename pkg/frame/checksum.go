package frame

import (
	"encoding/binary"
	"fmt"
)

// SimpleChecksum returns the byte that, stored at OffsetSimpleChecksum,
// makes the 8-bit sum of the whole frame zero. The current value of the
// checksum byte is ignored.
func SimpleChecksum(f *Frame) byte {
	var sum byte
	for i, b := range f {
		if i == OffsetSimpleChecksum {
			continue
		}
		sum += b
	}
	return -sum
}

// WriteSimpleChecksum stores the simple checksum in f.
func WriteSimpleChecksum(f *Frame) {
	f[OffsetSimpleChecksum] = SimpleChecksum(f)
}

// VerifySimpleChecksum reports ErrSimpleChecksum unless all 18 bytes,
// checksum included, sum to zero modulo 256.
func VerifySimpleChecksum(f *Frame) error {
	var sum byte
	for _, b := range f {
		sum += b
	}
	if sum != 0 {
		return fmt.Errorf("%w: residue 0x%02x", ErrSimpleChecksum, sum)
	}
	return nil
}

// VerifyClassicMagic reports ErrUnexpectedMagic unless f starts with one
// of the accepted response magics.
func VerifyClassicMagic(f *Frame) error {
	switch f[OffsetMagic] {
	case MagicResponseA, MagicResponseB:
		return nil
	default:
		return fmt.Errorf("%w: 0x%02x", ErrUnexpectedMagic, f[OffsetMagic])
	}
}

// SecurityChecksum returns (0 - (w0 + w1 + w2)) mod 2^32 over the first
// three little-endian words of f.
func SecurityChecksum(f *Frame) uint32 {
	w0 := binary.LittleEndian.Uint32(f[0x00:])
	w1 := binary.LittleEndian.Uint32(f[0x04:])
	w2 := binary.LittleEndian.Uint32(f[0x08:])
	return 0 - (w0 + w1 + w2)
}

// WriteSecurityChecksum stores the security checksum at OffsetSecurityCheck.
func WriteSecurityChecksum(f *Frame) {
	binary.LittleEndian.PutUint32(f[OffsetSecurityCheck:], SecurityChecksum(f))
}

// VerifySecurityChecksum reports ErrSecurityChecksum if the stored
// checksum does not match the recomputed one.
func VerifySecurityChecksum(f *Frame) error {
	want := SecurityChecksum(f)
	got := binary.LittleEndian.Uint32(f[OffsetSecurityCheck:])
	if got != want {
		return fmt.Errorf("%w: stored 0x%08x, computed 0x%08x", ErrSecurityChecksum, got, want)
	}
	return nil
}
