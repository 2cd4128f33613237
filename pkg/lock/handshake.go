package lock

import (
	"context"
	"fmt"
	"io"

	"github.com/augustctl/augustctl-go/pkg/frame"
	"github.com/augustctl/augustctl-go/pkg/session"
)

// handshakeKeySize is the number of random bytes drawn per connection.
// The first half goes out with KEY_EXCHANGE, the second with
// INITIALIZATION.
const handshakeKeySize = 16

// DeriveSessionKey concatenates the client half (the first 8 handshake
// bytes) and the lock half (the KEY_EXCHANGE response payload).
func DeriveSessionKey(clientHalf, lockHalf []byte) ([]byte, error) {
	if len(clientHalf) != frame.SecurePayloadSize || len(lockHalf) != frame.SecurePayloadSize {
		return nil, fmt.Errorf("%w: session key halves must be %d bytes", session.ErrKeySize, frame.SecurePayloadSize)
	}
	key := make([]byte, 0, session.KeySize)
	key = append(key, clientHalf...)
	return append(key, lockHalf...), nil
}

func (l *Lock) handshake(ctx context.Context) error {
	keys := make([]byte, handshakeKeySize)
	defer clear(keys)
	if _, err := io.ReadFull(l.config.Rand, keys); err != nil {
		return fmt.Errorf("generate handshake keys: %w", err)
	}

	if err := l.secure.SetKey(l.config.OfflineKey); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	req := frame.NewSecure(frame.OpKeyExchange, l.config.OfflineKeyOffset)
	req.SetSecurePayload(keys[:8])
	resp, err := l.secureCh.Execute(ctx, req)
	if err != nil {
		return fmt.Errorf("key exchange: %w", err)
	}
	if err := expectOpcode("key exchange", &resp, frame.OpKeyExchangeResponse); err != nil {
		return err
	}
	l.setState(StateSecureEstablished, "key exchange acknowledged")

	sessionKey, err := DeriveSessionKey(keys[:8], resp.SecurePayload())
	if err != nil {
		return err
	}
	defer clear(sessionKey)
	if err := l.classic.SetKey(sessionKey); err != nil {
		return err
	}
	if err := l.secure.SetKey(sessionKey); err != nil {
		return err
	}
	l.setState(StateSessionKeyed, "session key installed")

	req = frame.NewSecure(frame.OpInitialization, l.config.OfflineKeyOffset)
	req.SetSecurePayload(keys[8:])
	resp, err = l.secureCh.Execute(ctx, req)
	if err != nil {
		return fmt.Errorf("initialization: %w", err)
	}
	if err := expectOpcode("initialization", &resp, frame.OpInitializationResult); err != nil {
		return err
	}
	l.setState(StateReady, "initialization acknowledged")
	return nil
}

func expectOpcode(step string, resp *frame.Frame, want byte) error {
	if got := resp.SecureOpcode(); got != want {
		return fmt.Errorf("%w: %s: unexpected opcode 0x%02x (want 0x%02x): %s", ErrProtocol, step, got, want, resp)
	}
	return nil
}
