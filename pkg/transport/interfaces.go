package transport

import (
	"context"

	"github.com/google/uuid"

	"github.com/augustctl/augustctl-go/pkg/frame"
)

// GATT identifiers of the lock command service.
var (
	ServiceUUID       = uuid.MustParse("bd4ac610-0b45-11e3-8ffd-0800200c9a66")
	ClassicWriteUUID  = uuid.MustParse("bd4ac611-0b45-11e3-8ffd-0800200c9a66")
	ClassicNotifyUUID = uuid.MustParse("bd4ac612-0b45-11e3-8ffd-0800200c9a66")
	SecureWriteUUID   = uuid.MustParse("bd4ac613-0b45-11e3-8ffd-0800200c9a66")
	SecureNotifyUUID  = uuid.MustParse("bd4ac614-0b45-11e3-8ffd-0800200c9a66")
)

// CharacteristicUUIDs lists every characteristic the lock protocol needs.
func CharacteristicUUIDs() []uuid.UUID {
	return []uuid.UUID{ClassicWriteUUID, ClassicNotifyUUID, SecureWriteUUID, SecureNotifyUUID}
}

// Peripheral is a connectable BLE device.
type Peripheral interface {
	// ID returns a stable identifier (address or platform UUID).
	ID() string

	// Connect establishes the radio-level connection.
	Connect(ctx context.Context) error

	// Disconnect tears down the radio-level connection.
	Disconnect() error

	// DiscoverCharacteristics returns the characteristics of service
	// whose UUIDs are listed in uuids. Missing ones are simply absent
	// from the result.
	DiscoverCharacteristics(ctx context.Context, service uuid.UUID, uuids []uuid.UUID) ([]Characteristic, error)
}

// Characteristic is a discovered GATT characteristic.
type Characteristic interface {
	// UUID returns the characteristic UUID.
	UUID() uuid.UUID

	// Write sends p, with or without link-layer acknowledgement.
	Write(p []byte, withoutResponse bool) error

	// EnableNotifications subscribes handler to value notifications.
	// A nil handler unsubscribes. Handlers for one characteristic are
	// called in arrival order from a single goroutine.
	EnableNotifications(handler func(data []byte)) error
}

// FrameCodec seals outbound frames and opens inbound ones for a channel.
// Implemented by session.Classic and session.Secure.
type FrameCodec interface {
	Seal(f *frame.Frame) error
	Open(f *frame.Frame) error
}
