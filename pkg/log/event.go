package log

import (
	"time"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies one connect..disconnect cycle (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates frame flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Channel is the logical BLE channel, if any.
	Channel Channel `cbor:"6,keyasint,omitempty"`

	// LockID identifies the peripheral (address or configured UUID).
	LockID string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"12,keyasint,omitempty"`
}

// Direction indicates the direction of frame flow.
type Direction uint8

const (
	// DirectionIn indicates a notification from the lock.
	DirectionIn Direction = 0
	// DirectionOut indicates a write to the lock.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the characteristic layer (enciphered bytes).
	LayerTransport Layer = 0
	// LayerSession is the cipher session layer (validated plaintext).
	LayerSession Layer = 1
	// LayerLock is the lock controller layer.
	LayerLock Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerSession:
		return "SESSION"
	case LayerLock:
		return "LOCK"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryFrame indicates a protocol frame.
	CategoryFrame Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryFrame:
		return "FRAME"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Channel identifies one of the two characteristic pairs.
type Channel uint8

const (
	// ChannelNone marks events not tied to a channel.
	ChannelNone Channel = 0
	// ChannelClassic is the CBC-enciphered command channel.
	ChannelClassic Channel = 1
	// ChannelSecure is the ECB-enciphered key exchange channel.
	ChannelSecure Channel = 2
)

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case ChannelNone:
		return "NONE"
	case ChannelClassic:
		return "CLASSIC"
	case ChannelSecure:
		return "SECURE"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures a single 18-byte frame.
type FrameEvent struct {
	// Size is the frame size in bytes as seen on the characteristic.
	Size int `cbor:"1,keyasint"`

	// Data holds the raw bytes. Only set at the transport layer.
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Opcode is the decoded opcode. Only set at the session layer.
	Opcode *uint8 `cbor:"3,keyasint,omitempty"`
}

// StateChangeEvent captures connection and handshake lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a connection state change.
	StateEntityConnection StateEntity = 0
	// StateEntityHandshake indicates a handshake state change.
	StateEntityHandshake StateEntity = 1
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityHandshake:
		return "HANDSHAKE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
