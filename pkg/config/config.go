// Package config loads the augustctl configuration file.
//
// The file is YAML. Since YAML is a superset of JSON, a config.json of
// the form
//
//	{
//	  "lockUuid": "f8ffe6d2f3a4",
//	  "offlineKey": "00112233445566778899aabbccddeeff",
//	  "offlineKeyOffset": 1
//	}
//
// loads unchanged.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/augustctl/augustctl-go/pkg/lock"
)

// EnvPath names the environment variable that overrides the default
// configuration path.
const EnvPath = "AUGUSTCTL_CONFIG"

// DefaultPath is used when neither a flag nor EnvPath is set.
const DefaultPath = "./config.json"

// Defaults.
const (
	DefaultAddress     = "localhost"
	DefaultPort        = 3000
	DefaultScanTimeout = 30 * time.Second
)

// Config is the on-disk configuration.
type Config struct {
	// LockUUID selects the lock by platform identifier. Empty matches the
	// first lock advertising the command service.
	LockUUID string `yaml:"lockUuid"`

	// LockAddress selects the lock by BLE address, if LockUUID is empty.
	LockAddress string `yaml:"lockAddress"`

	// OfflineKey is the 16-byte offline key, hex encoded.
	OfflineKey string `yaml:"offlineKey"`

	// OfflineKeyOffset is the lock key slot of OfflineKey.
	OfflineKeyOffset int `yaml:"offlineKeyOffset"`

	// Address and Port are the HTTP server listen address.
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`

	// ResponseTimeout bounds each request/response exchange.
	ResponseTimeout time.Duration `yaml:"responseTimeout"`

	// ScanTimeout bounds the search for the lock.
	ScanTimeout time.Duration `yaml:"scanTimeout"`

	// WriteWithoutResponse writes frames as GATT write commands.
	WriteWithoutResponse bool `yaml:"writeWithoutResponse"`

	// ProtocolLog is an optional path for the CBOR protocol capture.
	ProtocolLog string `yaml:"protocolLog"`

	// HistoryDB is the server's SQLite history database.
	HistoryDB string `yaml:"historyDb"`
}

// Default returns a Config with every optional field set.
func Default() Config {
	return Config{
		Address:         DefaultAddress,
		Port:            DefaultPort,
		ResponseTimeout: lock.DefaultResponseTimeout,
		ScanTimeout:     DefaultScanTimeout,
		HistoryDB:       "augustctl.db",
	}
}

// Path resolves the configuration path: flagValue if set, then the
// environment, then DefaultPath.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a configuration document. Missing
// optional fields take their defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", lock.ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the lock credentials and the server settings.
func (c *Config) Validate() error {
	if _, err := lock.ParseOfflineKey(c.OfflineKey); err != nil {
		return err
	}
	if c.OfflineKeyOffset < 1 || c.OfflineKeyOffset > 255 {
		return fmt.Errorf("%w: offlineKeyOffset must be 1..255, got %d", lock.ErrConfiguration, c.OfflineKeyOffset)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port %d", lock.ErrConfiguration, c.Port)
	}
	if c.ResponseTimeout < 0 || c.ScanTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", lock.ErrConfiguration)
	}
	return nil
}

// LockID returns the identifier used to select the lock while scanning.
func (c *Config) LockID() string {
	if c.LockUUID != "" {
		return strings.ToLower(c.LockUUID)
	}
	return strings.ToLower(c.LockAddress)
}

// ListenAddr returns the HTTP listen address.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// LockConfig returns the lock controller configuration.
func (c *Config) LockConfig() (lock.Config, error) {
	if err := c.Validate(); err != nil {
		return lock.Config{}, err
	}
	key, err := lock.ParseOfflineKey(c.OfflineKey)
	if err != nil {
		return lock.Config{}, err
	}
	lc := lock.DefaultConfig()
	lc.OfflineKey = key
	lc.OfflineKeyOffset = uint8(c.OfflineKeyOffset)
	lc.ResponseTimeout = c.ResponseTimeout
	lc.WriteWithoutResponse = c.WriteWithoutResponse
	return lc, nil
}
