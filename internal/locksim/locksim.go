// Package locksim provides a simulated lock peripheral for tests and
// offline demos. It speaks the lock side of both channels: it opens
// requests with its own cipher sessions, answers the handshake and
// commands, and keeps a record of every request it saw.
package locksim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/augustctl/augustctl-go/pkg/frame"
	"github.com/augustctl/augustctl-go/pkg/log"
	"github.com/augustctl/augustctl-go/pkg/session"
	"github.com/augustctl/augustctl-go/pkg/transport"
)

// Lock state codes reported in status responses.
const (
	StateUnlocked byte = 0x03
	StateLocked   byte = 0x05
)

// ErrNotConnected is returned by characteristic writes while the
// simulated link is down.
var ErrNotConnected = errors.New("locksim: not connected")

// Request is a request received by the simulator.
type Request struct {
	// Channel is the channel the request arrived on.
	Channel log.Channel

	// Raw is the enciphered frame as written.
	Raw []byte

	// Plain is the deciphered frame. Zero if decryption failed.
	Plain frame.Frame

	// Err is the integrity failure, if any.
	Err error
}

// Opcode returns the request opcode for its channel.
func (r Request) Opcode() byte {
	if r.Channel == log.ChannelClassic {
		return r.Plain.ClassicOpcode()
	}
	return r.Plain.SecureOpcode()
}

// Handlers customize the simulator's answers. A nil handler keeps the
// default behavior.
type Handlers struct {
	// OnConnect is called on Connect; a non-nil error fails it.
	OnConnect func() error

	// OnWrite is called before a request is processed; a non-nil
	// error fails the write.
	OnWrite func(ch log.Channel, raw []byte) error

	// OnResponse may rewrite the plaintext response before it is sealed.
	// Returning false suppresses the response.
	OnResponse func(req Request, resp *frame.Frame) bool
}

// Peripheral is a simulated lock. Create with New.
type Peripheral struct {
	// Address identifies the simulated lock.
	Address string

	// OfflineKey and OfflineKeyOffset are the provisioned credentials.
	OfflineKey       []byte
	OfflineKeyOffset byte

	// LockHalf is the lock's contribution to the session key, returned in
	// the KEY_EXCHANGE response payload.
	LockHalf [frame.SecurePayloadSize]byte

	// Omit lists characteristics hidden from discovery.
	Omit []uuid.UUID

	// Handlers are callbacks for fault injection.
	Handlers Handlers

	mu          sync.Mutex
	state       byte
	connected   bool
	connects    int
	disconnects int
	requests    []Request
	sessionKey  []byte

	classic *session.Classic
	secure  *session.Secure
	chars   map[uuid.UUID]*characteristic
}

// New creates an unlocked simulated lock with the given credentials.
func New(address string, offlineKey []byte, offset byte) *Peripheral {
	p := &Peripheral{
		Address:          address,
		OfflineKey:       append([]byte(nil), offlineKey...),
		OfflineKeyOffset: offset,
		LockHalf:         [8]byte{0xa0, 0xa1, 0xa2, 0xa3, 0xa4, 0xa5, 0xa6, 0xa7},
		state:            StateUnlocked,
		classic:          session.NewClassic(),
		secure:           session.NewSecure(),
		chars:            make(map[uuid.UUID]*characteristic),
	}
	for _, id := range transport.CharacteristicUUIDs() {
		p.chars[id] = &characteristic{id: id, owner: p}
	}
	return p
}

// ID returns the simulated address.
func (p *Peripheral) ID() string {
	return p.Address
}

// Connect brings the link up and resets both lock-side sessions.
func (p *Peripheral) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Handlers.OnConnect != nil {
		if err := p.Handlers.OnConnect(); err != nil {
			return err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = true
	p.connects++
	p.sessionKey = nil
	p.classic.Reset()
	if err := p.secure.SetKey(p.OfflineKey); err != nil {
		return fmt.Errorf("locksim: offline key: %w", err)
	}
	return nil
}

// Disconnect drops the link and every notification subscription.
func (p *Peripheral) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = false
	p.disconnects++
	p.classic.Reset()
	p.secure.Reset()
	for _, c := range p.chars {
		c.setHandler(nil)
	}
	return nil
}

// DiscoverCharacteristics returns the requested characteristics minus
// those listed in Omit.
func (p *Peripheral) DiscoverCharacteristics(ctx context.Context, service uuid.UUID, uuids []uuid.UUID) ([]transport.Characteristic, error) {
	if service != transport.ServiceUUID {
		return nil, nil
	}
	omitted := make(map[uuid.UUID]bool, len(p.Omit))
	for _, id := range p.Omit {
		omitted[id] = true
	}
	var out []transport.Characteristic
	for _, id := range uuids {
		if c, ok := p.chars[id]; ok && !omitted[id] {
			out = append(out, c)
		}
	}
	return out, nil
}

// LockState returns the current status code.
func (p *Peripheral) LockState() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetLockState sets the status code reported to status queries.
func (p *Peripheral) SetLockState(code byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = code
}

// SessionKey returns the session key of the current connection, or nil
// before KEY_EXCHANGE.
func (p *Peripheral) SessionKey() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.sessionKey...)
}

// Connected reports whether the link is up.
func (p *Peripheral) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Connects and Disconnects count link transitions.
func (p *Peripheral) Connects() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connects
}

func (p *Peripheral) Disconnects() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disconnects
}

// Requests returns a copy of every request received so far.
func (p *Peripheral) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Request(nil), p.requests...)
}

// Subscribed reports whether the characteristic has a notification handler.
func (p *Peripheral) Subscribed(id uuid.UUID) bool {
	c, ok := p.chars[id]
	return ok && c.subscribed()
}

// receive processes one write and returns the enciphered response, or nil.
func (p *Peripheral) receive(id uuid.UUID, raw []byte) ([]byte, uuid.UUID, error) {
	ch := log.ChannelSecure
	notify := transport.SecureNotifyUUID
	if id == transport.ClassicWriteUUID {
		ch = log.ChannelClassic
		notify = transport.ClassicNotifyUUID
	}

	if p.Handlers.OnWrite != nil {
		if err := p.Handlers.OnWrite(ch, raw); err != nil {
			return nil, notify, err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return nil, notify, ErrNotConnected
	}

	req := Request{Channel: ch, Raw: append([]byte(nil), raw...)}
	f, err := frame.Parse(raw)
	if err == nil {
		err = p.open(ch, &f)
	}
	if err != nil {
		req.Err = err
		p.requests = append(p.requests, req)
		return nil, notify, nil
	}
	req.Plain = f
	p.requests = append(p.requests, req)

	var resp frame.Frame
	if ch == log.ChannelClassic {
		resp = p.answerClassic(&f)
	} else {
		resp = p.answerSecure(&f)
	}
	if p.Handlers.OnResponse != nil && !p.Handlers.OnResponse(req, &resp) {
		return nil, notify, nil
	}

	if ch == log.ChannelClassic {
		err = p.classic.Seal(&resp)
	} else {
		err = p.secure.Seal(&resp)
	}
	if err != nil {
		return nil, notify, err
	}

	// Re-key after sealing: the KEY_EXCHANGE response still goes out
	// under the offline key.
	if ch == log.ChannelSecure && f.SecureOpcode() == frame.OpKeyExchange {
		if err := p.installSessionKey(f.SecurePayload()); err != nil {
			return nil, notify, err
		}
	}
	return append([]byte(nil), resp.Bytes()...), notify, nil
}

func (p *Peripheral) open(ch log.Channel, f *frame.Frame) error {
	if ch == log.ChannelSecure {
		return p.secure.Open(f)
	}
	// Requests carry the request magic, so only the checksum applies.
	if err := p.classic.Decrypt(f); err != nil {
		return err
	}
	return frame.VerifySimpleChecksum(f)
}

func (p *Peripheral) answerSecure(req *frame.Frame) frame.Frame {
	switch req.SecureOpcode() {
	case frame.OpKeyExchange:
		resp := frame.NewSecure(frame.OpKeyExchangeResponse, req.KeyOffset())
		resp.SetSecurePayload(p.LockHalf[:])
		return resp
	case frame.OpInitialization:
		return frame.NewSecure(frame.OpInitializationResult, req.KeyOffset())
	case frame.OpDisconnect:
		return frame.NewSecure(frame.OpDisconnectResponse, req.KeyOffset())
	default:
		return frame.NewSecure(0xFF, req.KeyOffset())
	}
}

func (p *Peripheral) answerClassic(req *frame.Frame) frame.Frame {
	resp := *req
	resp[frame.OffsetMagic] = frame.MagicResponseB

	switch req.ClassicOpcode() {
	case frame.OpForceLock:
		p.state = StateLocked
	case frame.OpForceUnlock:
		p.state = StateUnlocked
	case frame.OpStatus:
		resp[frame.OffsetStatus] = p.state
	}
	return resp
}

func (p *Peripheral) installSessionKey(clientHalf []byte) error {
	key := append(append([]byte(nil), clientHalf...), p.LockHalf[:]...)
	if err := p.classic.SetKey(key); err != nil {
		return err
	}
	if err := p.secure.SetKey(key); err != nil {
		return err
	}
	p.sessionKey = key
	return nil
}

// characteristic is one simulated GATT characteristic.
type characteristic struct {
	id    uuid.UUID
	owner *Peripheral

	mu      sync.Mutex
	handler func([]byte)
}

func (c *characteristic) UUID() uuid.UUID {
	return c.id
}

// Write processes the request and delivers the response notification
// synchronously on the paired notify characteristic.
func (c *characteristic) Write(p []byte, withoutResponse bool) error {
	resp, notify, err := c.owner.receive(c.id, p)
	if err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	if h := c.owner.chars[notify].currentHandler(); h != nil {
		h(resp)
	}
	return nil
}

func (c *characteristic) EnableNotifications(handler func([]byte)) error {
	c.setHandler(handler)
	return nil
}

func (c *characteristic) setHandler(h func([]byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

func (c *characteristic) currentHandler() func([]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler
}

func (c *characteristic) subscribed() bool {
	return c.currentHandler() != nil
}

// Compile-time interface checks.
var (
	_ transport.Peripheral     = (*Peripheral)(nil)
	_ transport.Characteristic = (*characteristic)(nil)
)
