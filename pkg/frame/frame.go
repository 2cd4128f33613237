package frame

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// Size is the length of every frame on either channel.
const Size = 18

// CipherSize is the enciphered prefix of a frame (one AES block).
const CipherSize = 16

// Frame offsets.
const (
	OffsetMagic          = 0x00
	OffsetOpcode         = 0x01
	OffsetSimpleChecksum = 0x03
	OffsetPayload        = 0x04
	OffsetStatus         = 0x08
	OffsetSecurityCheck  = 0x0C
	OffsetMarker         = 0x10
	OffsetKeyOffset      = 0x11

	// OffsetSecureOpcode is where secure frames carry their opcode.
	OffsetSecureOpcode = 0x00
)

// Payload sizes.
const (
	ClassicPayloadSize = 12
	SecurePayloadSize  = 8
)

// Magic and marker bytes.
const (
	MagicRequest   byte = 0xEE
	MagicResponseA byte = 0xAA
	MagicResponseB byte = 0xBB

	ClassicMarker byte = 0x02
	SecureMarker  byte = 0x0F
)

// Classic opcodes.
const (
	OpStatus      byte = 0x02
	OpForceUnlock byte = 0x0A
	OpForceLock   byte = 0x0B
)

// Secure opcodes.
const (
	OpKeyExchange          byte = 0x01
	OpKeyExchangeResponse  byte = 0x02
	OpInitialization       byte = 0x03
	OpInitializationResult byte = 0x04
	OpDisconnect           byte = 0x05
	OpDisconnectResponse   byte = 0x8B
)

// statusParameterLockState selects the lock state in a status query.
const statusParameterLockState byte = 0x02

// Frame errors.
var (
	// ErrMalformedFrame indicates a buffer that is not exactly Size bytes.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrIntegrity is the parent of every checksum and magic failure.
	ErrIntegrity = errors.New("frame integrity check failed")

	// ErrSimpleChecksum indicates a classic frame whose byte sum is not zero.
	ErrSimpleChecksum = fmt.Errorf("%w: simple checksum mismatch", ErrIntegrity)

	// ErrSecurityChecksum indicates a secure frame whose stored checksum differs.
	ErrSecurityChecksum = fmt.Errorf("%w: security checksum mismatch", ErrIntegrity)

	// ErrUnexpectedMagic indicates a classic response with an unknown magic byte.
	ErrUnexpectedMagic = fmt.Errorf("%w: unexpected response magic", ErrIntegrity)
)

// Frame is a single 18-byte protocol unit.
type Frame [Size]byte

// Parse copies b into a Frame. b must be exactly Size bytes long.
func Parse(b []byte) (Frame, error) {
	var f Frame
	if len(b) != Size {
		return f, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedFrame, len(b), Size)
	}
	copy(f[:], b)
	return f, nil
}

// NewClassic builds a classic request frame for opcode with an empty payload.
func NewClassic(opcode byte) Frame {
	var f Frame
	f[OffsetMagic] = MagicRequest
	f[OffsetOpcode] = opcode
	f[OffsetMarker] = ClassicMarker
	return f
}

// NewStatusQuery builds the fixed lock-state query template.
func NewStatusQuery() Frame {
	f := NewClassic(OpStatus)
	f[OffsetPayload] = statusParameterLockState
	return f
}

// NewSecure builds a secure request frame for opcode, tagged with the
// offline key slot the lock should use.
func NewSecure(opcode, keyOffset byte) Frame {
	var f Frame
	f[OffsetSecureOpcode] = opcode
	f[OffsetMarker] = SecureMarker
	f[OffsetKeyOffset] = keyOffset
	return f
}

// Bytes returns the frame contents as a slice backed by f.
func (f *Frame) Bytes() []byte {
	return f[:]
}

// Block returns the enciphered prefix of the frame.
func (f *Frame) Block() []byte {
	return f[:CipherSize]
}

// ClassicOpcode returns the opcode of a classic frame.
func (f *Frame) ClassicOpcode() byte {
	return f[OffsetOpcode]
}

// SecureOpcode returns the opcode of a secure frame.
func (f *Frame) SecureOpcode() byte {
	return f[OffsetSecureOpcode]
}

// Status returns the lock state code of a classic status response.
func (f *Frame) Status() byte {
	return f[OffsetStatus]
}

// KeyOffset returns the offline key slot of a secure frame.
func (f *Frame) KeyOffset() byte {
	return f[OffsetKeyOffset]
}

// SetKeyOffset overwrites the offline key slot of a secure frame.
func (f *Frame) SetKeyOffset(offset byte) {
	f[OffsetKeyOffset] = offset
}

// SecurePayload returns the 8 payload bytes of a secure frame.
func (f *Frame) SecurePayload() []byte {
	return f[OffsetPayload : OffsetPayload+SecurePayloadSize]
}

// SetSecurePayload copies p into the secure payload field.
// It panics if p is not SecurePayloadSize bytes.
func (f *Frame) SetSecurePayload(p []byte) {
	if len(p) != SecurePayloadSize {
		panic(fmt.Sprintf("frame: secure payload must be %d bytes, got %d", SecurePayloadSize, len(p)))
	}
	copy(f[OffsetPayload:], p)
}

// ClassicPayload returns the 12 payload bytes of a classic frame.
func (f *Frame) ClassicPayload() []byte {
	return f[OffsetPayload : OffsetPayload+ClassicPayloadSize]
}

// String returns the frame as lowercase hex.
func (f Frame) String() string {
	return hex.EncodeToString(f[:])
}
