package lock

// State is the position of a Lock in the connection lifecycle.
type State uint8

const (
	// StateDisconnected means no radio link.
	StateDisconnected State = iota

	// StateTransportConnected means the radio link is up but no session
	// is keyed.
	StateTransportConnected

	// StateSecureEstablished means the key exchange was acknowledged.
	StateSecureEstablished

	// StateSessionKeyed means both sessions carry the session key.
	StateSessionKeyed

	// StateReady means the lock accepts commands.
	StateReady
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateTransportConnected:
		return "TRANSPORT_CONNECTED"
	case StateSecureEstablished:
		return "SECURE_ESTABLISHED"
	case StateSessionKeyed:
		return "SESSION_KEYED"
	case StateReady:
		return "READY"
	default:
		return "UNKNOWN"
	}
}

// IsSecure reports whether the secure session has been established.
func (s State) IsSecure() bool {
	return s >= StateSecureEstablished
}
