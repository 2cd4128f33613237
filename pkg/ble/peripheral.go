package ble

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"tinygo.org/x/bluetooth"

	"github.com/augustctl/augustctl-go/pkg/transport"
)

// Peripheral is a lock reachable through a Bluetooth adapter.
type Peripheral struct {
	adapter *bluetooth.Adapter
	address bluetooth.Address
	logger  *slog.Logger

	mu        sync.Mutex
	device    bluetooth.Device
	connected bool
}

func newPeripheral(adapter *bluetooth.Adapter, address bluetooth.Address, logger *slog.Logger) *Peripheral {
	return &Peripheral{adapter: adapter, address: address, logger: logger}
}

// ID returns the device address (a platform UUID on macOS).
func (p *Peripheral) ID() string {
	return p.address.String()
}

// Connect opens the radio link. The adapter call cannot be interrupted;
// if ctx ends first the link is dropped as soon as it comes up.
func (p *Peripheral) Connect(ctx context.Context) error {
	type result struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		d, err := p.adapter.Connect(p.address, bluetooth.ConnectionParams{})
		ch <- result{d, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return r.err
		}
		p.mu.Lock()
		p.device = r.device
		p.connected = true
		p.mu.Unlock()
		p.debugLog("connected", "address", p.ID())
		return nil

	case <-ctx.Done():
		go func() {
			if r := <-ch; r.err == nil {
				r.device.Disconnect()
			}
		}()
		return ctx.Err()
	}
}

// Disconnect closes the radio link.
func (p *Peripheral) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return nil
	}
	p.connected = false
	p.debugLog("disconnecting", "address", p.ID())
	return p.device.Disconnect()
}

// DiscoverCharacteristics resolves the listed characteristics of service.
func (p *Peripheral) DiscoverCharacteristics(ctx context.Context, service uuid.UUID, uuids []uuid.UUID) ([]transport.Characteristic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	device, connected := p.device, p.connected
	p.mu.Unlock()
	if !connected {
		return nil, fmt.Errorf("discover on %s: not connected", p.ID())
	}

	services, err := device.DiscoverServices([]bluetooth.UUID{toBluetoothUUID(service)})
	if err != nil {
		return nil, fmt.Errorf("discover service %s: %w", service, err)
	}
	if len(services) == 0 {
		return nil, nil
	}

	chars, err := services[0].DiscoverCharacteristics(toBluetoothUUIDs(uuids))
	if err != nil {
		return nil, fmt.Errorf("discover characteristics: %w", err)
	}

	out := make([]transport.Characteristic, 0, len(chars))
	for _, c := range chars {
		id, err := fromBluetoothUUID(c.UUID())
		if err != nil {
			return nil, err
		}
		out = append(out, &characteristic{id: id, char: c})
	}
	p.debugLog("characteristics discovered", "address", p.ID(), "count", len(out))
	return out, nil
}

func (p *Peripheral) debugLog(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

// characteristic adapts a tinygo characteristic.
type characteristic struct {
	id   uuid.UUID
	char bluetooth.DeviceCharacteristic
}

func (c *characteristic) UUID() uuid.UUID {
	return c.id
}

func (c *characteristic) Write(p []byte, withoutResponse bool) error {
	var err error
	if withoutResponse {
		_, err = c.char.WriteWithoutResponse(p)
	} else {
		_, err = c.char.Write(p)
	}
	return err
}

func (c *characteristic) EnableNotifications(handler func([]byte)) error {
	return c.char.EnableNotifications(handler)
}

var (
	_ transport.Peripheral     = (*Peripheral)(nil)
	_ transport.Characteristic = (*characteristic)(nil)
)
