package lock

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/augustctl/augustctl-go/pkg/log"
	"github.com/augustctl/augustctl-go/pkg/session"
)

// DefaultResponseTimeout bounds every wait for a notification.
const DefaultResponseTimeout = 10 * time.Second

// Config configures a Lock.
type Config struct {
	// OfflineKey is the 16-byte pre-shared key provisioned for this client.
	OfflineKey []byte

	// OfflineKeyOffset is the lock's key slot for OfflineKey (1..255).
	OfflineKeyOffset uint8

	// ResponseTimeout bounds each request/response exchange
	// (0 = wait forever).
	ResponseTimeout time.Duration

	// WriteWithoutResponse writes frames as GATT write commands.
	WriteWithoutResponse bool

	// Rand supplies the handshake keys (default: crypto/rand.Reader).
	Rand io.Reader

	// Logger is the optional logger for debug output.
	Logger *slog.Logger

	// ProtocolLogger receives frame and state events (optional).
	ProtocolLogger log.Logger
}

// DefaultConfig returns a Config with the default timeout and entropy
// source. The offline key and offset must still be filled in.
func DefaultConfig() Config {
	return Config{
		ResponseTimeout: DefaultResponseTimeout,
		Rand:            rand.Reader,
	}
}

// Validate checks the offline key material.
func (c Config) Validate() error {
	if len(c.OfflineKey) == 0 {
		return fmt.Errorf("%w: offline key must be specified", ErrConfiguration)
	}
	if len(c.OfflineKey) != session.KeySize {
		return fmt.Errorf("%w: offline key must be %d bytes, got %d", ErrConfiguration, session.KeySize, len(c.OfflineKey))
	}
	if c.OfflineKeyOffset == 0 {
		return fmt.Errorf("%w: offline key offset must be specified", ErrConfiguration)
	}
	if c.ResponseTimeout < 0 {
		return fmt.Errorf("%w: negative response timeout", ErrConfiguration)
	}
	return nil
}

// ParseOfflineKey decodes a hex offline key as stored in configuration.
func ParseOfflineKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: offline key is not hex: %w", ErrConfiguration, err)
	}
	if len(key) != session.KeySize {
		return nil, fmt.Errorf("%w: offline key must be %d bytes, got %d", ErrConfiguration, session.KeySize, len(key))
	}
	return key, nil
}
