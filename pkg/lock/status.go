package lock

import "github.com/augustctl/augustctl-go/pkg/frame"

// Lock state codes reported at frame.OffsetStatus.
const (
	StatusCodeUnlocked byte = 0x03
	StatusCodeLocked   byte = 0x05
)

// Status is the bolt state reported by the lock.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusUnlocked
	StatusLocked
)

// StatusFromCode maps a lock state code to a Status.
func StatusFromCode(code byte) Status {
	switch code {
	case StatusCodeUnlocked:
		return StatusUnlocked
	case StatusCodeLocked:
		return StatusLocked
	default:
		return StatusUnknown
	}
}

// StatusFromFrame reads the lock state of a decrypted status response.
func StatusFromFrame(f *frame.Frame) Status {
	return StatusFromCode(f.Status())
}

// String returns "unlocked", "locked" or "unknown".
func (s Status) String() string {
	switch s {
	case StatusUnlocked:
		return "unlocked"
	case StatusLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
