package lock

import "errors"

// Lock errors. Frame integrity failures surface as frame.ErrIntegrity and
// peripheral failures as transport.ErrTransport.
var (
	// ErrConfiguration indicates a missing or invalid offline key or
	// offset, or a lock that lacks a required characteristic.
	ErrConfiguration = errors.New("configuration error")

	// ErrProtocol indicates a response with an unexpected opcode.
	ErrProtocol = errors.New("protocol error")

	// ErrNotReady indicates a command issued before the handshake completed.
	ErrNotReady = errors.New("lock session not ready")

	// ErrAlreadyConnected indicates Connect on a lock that is not disconnected.
	ErrAlreadyConnected = errors.New("lock already connected")
)
