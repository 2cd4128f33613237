package ble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"tinygo.org/x/bluetooth"

	"github.com/augustctl/augustctl-go/pkg/transport"
)

// ErrNotFound is returned when the scan ends without a matching lock.
var ErrNotFound = errors.New("lock not found")

// Scanner discovers locks on a Bluetooth adapter.
type Scanner struct {
	adapter *bluetooth.Adapter
	logger  *slog.Logger

	enableOnce sync.Once
	enableErr  error
}

// NewScanner returns a Scanner on the default adapter.
func NewScanner(logger *slog.Logger) *Scanner {
	return &Scanner{adapter: bluetooth.DefaultAdapter, logger: logger}
}

func (s *Scanner) enable() error {
	s.enableOnce.Do(func() {
		if err := s.adapter.Enable(); err != nil {
			s.enableErr = fmt.Errorf("%w: enable adapter: %w", transport.ErrTransport, err)
		}
	})
	return s.enableErr
}

// Scan waits for the lock identified by id (address or platform UUID)
// or, with an empty id, for the first device advertising the command
// service. The scan ends when ctx is done.
func (s *Scanner) Scan(ctx context.Context, id string) (*Peripheral, error) {
	if err := s.enable(); err != nil {
		return nil, err
	}

	service := toBluetoothUUID(transport.ServiceUUID)
	found := make(chan bluetooth.ScanResult, 1)
	done := make(chan error, 1)

	go func() {
		done <- s.adapter.Scan(func(a *bluetooth.Adapter, result bluetooth.ScanResult) {
			addr := result.Address.String()
			if !matches(id, addr, result.HasServiceUUID(service)) {
				return
			}
			s.debugLog("lock found", "address", addr, "name", result.LocalName(), "rssi", result.RSSI)
			select {
			case found <- result:
				a.StopScan()
			default:
			}
		})
	}()

	select {
	case result := <-found:
		<-done
		return newPeripheral(s.adapter, result.Address, s.logger), nil

	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("%w: scan: %w", transport.ErrTransport, err)
		}
		return nil, ErrNotFound

	case <-ctx.Done():
		if err := s.adapter.StopScan(); err != nil {
			s.debugLog("stop scan failed", "error", err)
		}
		<-done
		select {
		case result := <-found:
			return newPeripheral(s.adapter, result.Address, s.logger), nil
		default:
		}
		return nil, fmt.Errorf("%w: %w", ErrNotFound, ctx.Err())
	}
}

func (s *Scanner) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
