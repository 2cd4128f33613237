package lock

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/augustctl/augustctl-go/pkg/frame"
	"github.com/augustctl/augustctl-go/pkg/log"
	"github.com/augustctl/augustctl-go/pkg/session"
	"github.com/augustctl/augustctl-go/pkg/transport"
)

// Lock controls one lock over a BLE peripheral.
type Lock struct {
	peripheral transport.Peripheral
	config     Config
	logger     *slog.Logger

	state   State
	scope   log.Scope
	classic *session.Classic
	secure  *session.Secure

	classicCh *transport.Channel
	secureCh  *transport.Channel
}

// New creates a disconnected Lock for p.
func New(p transport.Peripheral, config Config) (*Lock, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: peripheral is required", ErrConfiguration)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Rand == nil {
		config.Rand = rand.Reader
	}
	config.OfflineKey = append([]byte(nil), config.OfflineKey...)

	return &Lock{
		peripheral: p,
		config:     config,
		logger:     config.Logger,
		classic:    session.NewClassic(),
		secure:     session.NewSecure(),
		scope: log.Scope{
			Logger: config.ProtocolLogger,
			LockID: p.ID(),
		},
	}, nil
}

// ID returns the peripheral identifier.
func (l *Lock) ID() string {
	return l.peripheral.ID()
}

// State returns the current lifecycle state.
func (l *Lock) State() State {
	return l.state
}

// IsSecure reports whether the key exchange has been acknowledged on the
// current connection.
func (l *Lock) IsSecure() bool {
	return l.state.IsSecure()
}

// ConnectionID returns the identifier stamped on protocol log events of
// the current connection, or "" when disconnected.
func (l *Lock) ConnectionID() string {
	return l.scope.ConnectionID
}

// Connect establishes the radio link and runs the handshake.
func (l *Lock) Connect(ctx context.Context) error {
	if l.state != StateDisconnected {
		return fmt.Errorf("%w (state %s)", ErrAlreadyConnected, l.state)
	}

	l.scope.ConnectionID = uuid.NewString()
	l.debugLog("connecting", "lock", l.ID(), "connectionID", l.scope.ConnectionID)

	if err := l.peripheral.Connect(ctx); err != nil {
		err = fmt.Errorf("%w: connect: %w", transport.ErrTransport, err)
		l.scope.Error(log.LayerTransport, log.ChannelNone, "connect", err)
		l.scope.ConnectionID = ""
		return err
	}
	l.setState(StateTransportConnected, "peripheral connected")

	if err := l.bindChannels(ctx); err != nil {
		l.abort("discover", err)
		return err
	}
	if err := l.handshake(ctx); err != nil {
		l.abort("handshake", err)
		return err
	}
	return nil
}

// Status queries the bolt state.
func (l *Lock) Status(ctx context.Context) (Status, error) {
	resp, err := l.command(ctx, "status", frame.NewStatusQuery())
	if err != nil {
		return StatusUnknown, err
	}
	status := StatusFromFrame(&resp)
	l.debugLog("status", "lock", l.ID(), "status", status, "code", fmt.Sprintf("0x%02x", resp.Status()))
	return status, nil
}

// ForceLock engages the bolt. The returned frame has passed integrity
// checks; its payload carries no further meaning.
func (l *Lock) ForceLock(ctx context.Context) (frame.Frame, error) {
	return l.command(ctx, "force lock", frame.NewClassic(frame.OpForceLock))
}

// ForceUnlock retracts the bolt.
func (l *Lock) ForceUnlock(ctx context.Context) (frame.Frame, error) {
	return l.command(ctx, "force unlock", frame.NewClassic(frame.OpForceUnlock))
}

// Disconnect ends the session and releases the radio link. When the
// secure session is established a DISCONNECT request is sent first; its
// failure is reported but the link is released regardless.
func (l *Lock) Disconnect(ctx context.Context) error {
	if l.state == StateDisconnected {
		return nil
	}

	var errs []error
	if l.state.IsSecure() {
		if err := l.sendDisconnect(ctx); err != nil {
			l.scope.Error(log.LayerLock, log.ChannelSecure, "disconnect", err)
			errs = append(errs, err)
		}
	}

	errs = append(errs, l.teardown()...)
	if err := l.peripheral.Disconnect(); err != nil {
		errs = append(errs, fmt.Errorf("%w: disconnect: %w", transport.ErrTransport, err))
	}

	l.setState(StateDisconnected, "disconnected")
	l.scope.ConnectionID = ""
	return errors.Join(errs...)
}

func (l *Lock) command(ctx context.Context, name string, f frame.Frame) (frame.Frame, error) {
	if l.state != StateReady {
		return frame.Frame{}, fmt.Errorf("%w: %s (state %s)", ErrNotReady, name, l.state)
	}
	resp, err := l.classicCh.Execute(ctx, f)
	if err != nil {
		l.scope.Error(log.LayerLock, log.ChannelClassic, name, err)
		return frame.Frame{}, fmt.Errorf("%s: %w", name, err)
	}
	return resp, nil
}

func (l *Lock) sendDisconnect(ctx context.Context) error {
	req := frame.NewSecure(frame.OpDisconnect, 0)
	resp, err := l.secureCh.Execute(ctx, req)
	if err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return expectOpcode("disconnect", &resp, frame.OpDisconnectResponse)
}

// bindChannels discovers the four characteristics and starts both
// notification subscriptions.
func (l *Lock) bindChannels(ctx context.Context) error {
	chars, err := l.peripheral.DiscoverCharacteristics(ctx, transport.ServiceUUID, transport.CharacteristicUUIDs())
	if err != nil {
		return fmt.Errorf("%w: discover characteristics: %w", transport.ErrTransport, err)
	}

	byUUID := make(map[uuid.UUID]transport.Characteristic, len(chars))
	for _, c := range chars {
		byUUID[c.UUID()] = c
	}
	for _, id := range transport.CharacteristicUUIDs() {
		if byUUID[id] == nil {
			return fmt.Errorf("%w: characteristic %s not found", ErrConfiguration, id)
		}
	}

	l.classicCh = transport.NewChannel(transport.ChannelConfig{
		Kind:            log.ChannelClassic,
		Write:           byUUID[transport.ClassicWriteUUID],
		Notify:          byUUID[transport.ClassicNotifyUUID],
		Codec:           l.classic,
		Timeout:         l.config.ResponseTimeout,
		WithoutResponse: l.config.WriteWithoutResponse,
		Scope:           l.scope,
	})
	l.secureCh = transport.NewChannel(transport.ChannelConfig{
		Kind:            log.ChannelSecure,
		Write:           byUUID[transport.SecureWriteUUID],
		Notify:          byUUID[transport.SecureNotifyUUID],
		Codec:           l.secure,
		Timeout:         l.config.ResponseTimeout,
		WithoutResponse: l.config.WriteWithoutResponse,
		Scope:           l.scope,
	})

	if err := l.secureCh.Start(); err != nil {
		return err
	}
	return l.classicCh.Start()
}

// abort discards the keys of a failed connect. The radio link stays up
// until Disconnect.
func (l *Lock) abort(step string, err error) {
	l.scope.Error(log.LayerLock, log.ChannelNone, step, err)
	for _, terr := range l.teardown() {
		l.debugLog("teardown failed", "error", terr)
	}
	l.setState(StateTransportConnected, step+" failed")
}

func (l *Lock) teardown() []error {
	var errs []error
	for _, ch := range []*transport.Channel{l.secureCh, l.classicCh} {
		if ch == nil {
			continue
		}
		if err := ch.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	l.secureCh, l.classicCh = nil, nil
	l.classic.Reset()
	l.secure.Reset()
	return errs
}

func (l *Lock) setState(to State, reason string) {
	if l.state == to {
		return
	}
	from := l.state
	l.state = to
	l.scope.StateChange(log.StateEntityHandshake, from.String(), to.String(), reason)
	l.debugLog("state change", "lock", l.ID(), "from", from, "to", to)
}

// debugLog logs a debug message if a logger is configured.
func (l *Lock) debugLog(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}
