// Package lock implements the lock controller: the handshake that turns
// a pre-shared offline key into a per-connection session key, and the
// commands available once the session is ready.
//
// # Handshake
//
//	Disconnected
//	    │ peripheral connect, discover the four characteristics
//	    ▼
//	TransportConnected
//	    │ secure channel, offline key:  KEY_EXCHANGE (0x01) ─► 0x02
//	    ▼
//	SecureEstablished
//	    │ session key = handshakeKeys[0:8] ‖ response[4:12]
//	    │ key classic session, re-key secure session
//	    ▼
//	SessionKeyed
//	    │ secure channel, session key:  INITIALIZATION (0x03) ─► 0x04
//	    ▼
//	Ready
//
// Any failure aborts Connect: both sessions are reset (keys zeroed), the
// notification subscriptions are dropped and the controller falls back to
// TransportConnected so that Disconnect releases the radio link.
//
// # Commands
//
// Once Ready, Status, ForceLock and ForceUnlock run on the classic
// channel. Disconnect sends DISCONNECT (0x05, expecting 0x8B) on the
// secure channel with the key offset byte cleared, then releases the
// peripheral.
//
// A Lock is not safe for concurrent use; embedders with several callers
// must serialize access themselves.
package lock
