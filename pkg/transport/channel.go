package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/augustctl/augustctl-go/pkg/frame"
	"github.com/augustctl/augustctl-go/pkg/log"
)

// Channel errors.
var (
	// ErrTransport wraps failures reported by the peripheral collaborator.
	ErrTransport = errors.New("transport error")

	// ErrRequestTimeout indicates no notification arrived in time.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrRequestInFlight indicates a second Execute on a busy channel.
	ErrRequestInFlight = errors.New("request already in flight")

	// ErrChannelClosed indicates Execute on a stopped channel.
	ErrChannelClosed = errors.New("channel is closed")

	// ErrUnsolicited marks a notification that arrived with no request pending.
	ErrUnsolicited = errors.New("unsolicited notification")
)

// ChannelConfig configures a Channel.
type ChannelConfig struct {
	// Kind names the channel in logs and selects the opcode position.
	Kind log.Channel

	// Write and Notify are the characteristic pair of the channel.
	Write  Characteristic
	Notify Characteristic

	// Codec seals requests and opens responses.
	Codec FrameCodec

	// Timeout bounds the wait for a notification (0 = wait forever).
	Timeout time.Duration

	// WithoutResponse writes without link-layer acknowledgement.
	WithoutResponse bool

	// Scope receives raw and decoded frame events (optional).
	Scope log.Scope
}

// Channel correlates one outbound write with the next inbound
// notification on a characteristic pair.
type Channel struct {
	config ChannelConfig

	mu      sync.Mutex
	started bool
	pending chan []byte
}

// NewChannel creates a stopped channel.
func NewChannel(config ChannelConfig) *Channel {
	return &Channel{config: config}
}

// Kind returns the logical channel this Channel serves.
func (c *Channel) Kind() log.Channel {
	return c.config.Kind
}

// Start subscribes to notifications.
func (c *Channel) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}
	if err := c.config.Notify.EnableNotifications(c.handleNotification); err != nil {
		return fmt.Errorf("%w: enable notifications on %s: %w", ErrTransport, c.config.Kind, err)
	}
	c.started = true
	return nil
}

// Stop unsubscribes and fails any pending Execute with ErrChannelClosed.
func (c *Channel) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil
	}
	c.started = false
	if c.pending != nil {
		close(c.pending)
		c.pending = nil
	}
	if err := c.config.Notify.EnableNotifications(nil); err != nil {
		return fmt.Errorf("%w: disable notifications on %s: %w", ErrTransport, c.config.Kind, err)
	}
	return nil
}

// Execute seals f, writes it and waits for the paired notification, which
// is opened and returned. Any error leaves the channel cipher state
// unknown; the connection should be torn down.
func (c *Channel) Execute(ctx context.Context, f frame.Frame) (frame.Frame, error) {
	respCh := make(chan []byte, 1)

	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return frame.Frame{}, ErrChannelClosed
	}
	if c.pending != nil {
		c.mu.Unlock()
		return frame.Frame{}, fmt.Errorf("%w on %s channel", ErrRequestInFlight, c.config.Kind)
	}
	c.pending = respCh
	c.mu.Unlock()

	defer c.clearPending(respCh)

	if err := c.config.Codec.Seal(&f); err != nil {
		return frame.Frame{}, err
	}

	c.config.Scope.RawFrame(c.config.Kind, log.DirectionOut, f.Bytes())
	if err := c.config.Write.Write(f.Bytes(), c.config.WithoutResponse); err != nil {
		err = fmt.Errorf("%w: write on %s: %w", ErrTransport, c.config.Kind, err)
		c.config.Scope.Error(log.LayerTransport, c.config.Kind, "write", err)
		return frame.Frame{}, err
	}

	var timeout <-chan time.Time
	if c.config.Timeout > 0 {
		timer := time.NewTimer(c.config.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-ctx.Done():
		return frame.Frame{}, ctx.Err()

	case <-timeout:
		err := fmt.Errorf("%w after %s on %s channel", ErrRequestTimeout, c.config.Timeout, c.config.Kind)
		c.config.Scope.Error(log.LayerTransport, c.config.Kind, "await notification", err)
		return frame.Frame{}, err

	case raw, ok := <-respCh:
		if !ok {
			return frame.Frame{}, ErrChannelClosed
		}
		return c.open(raw)
	}
}

func (c *Channel) open(raw []byte) (frame.Frame, error) {
	resp, err := frame.Parse(raw)
	if err != nil {
		c.config.Scope.Error(log.LayerSession, c.config.Kind, "parse response", err)
		return frame.Frame{}, err
	}
	if err := c.config.Codec.Open(&resp); err != nil {
		c.config.Scope.Error(log.LayerSession, c.config.Kind, "open response", err)
		return frame.Frame{}, err
	}

	opcode := resp.SecureOpcode()
	if c.config.Kind == log.ChannelClassic {
		opcode = resp.ClassicOpcode()
	}
	c.config.Scope.DecodedFrame(c.config.Kind, log.DirectionIn, len(raw), opcode)
	return resp, nil
}

func (c *Channel) clearPending(ch chan []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == ch {
		c.pending = nil
	}
}

// handleNotification hands data to the pending request, if any. The slot
// is cleared before delivery so each request sees exactly one reply.
func (c *Channel) handleNotification(data []byte) {
	c.config.Scope.RawFrame(c.config.Kind, log.DirectionIn, data)

	c.mu.Lock()
	ch := c.pending
	c.pending = nil
	c.mu.Unlock()

	if ch == nil {
		c.config.Scope.Error(log.LayerTransport, c.config.Kind, "notification", ErrUnsolicited)
		return
	}
	ch <- append([]byte(nil), data...)
}
