package session

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/augustctl/augustctl-go/pkg/frame"
)

// KeySize is the length of offline and session keys.
const KeySize = 16

// Session errors.
var (
	// ErrNotKeyed indicates a cipher operation before SetKey.
	ErrNotKeyed = errors.New("session has no key")

	// ErrKeySize indicates a key that is not KeySize bytes.
	ErrKeySize = errors.New("invalid key size")
)

// zeroIV anchors every classic chain.
var zeroIV [aes.BlockSize]byte

func newBlock(key []byte) (cipher.Block, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrKeySize, len(key), KeySize)
	}
	return aes.NewCipher(key)
}

// Classic is the chained cipher session of the classic channel.
type Classic struct {
	key [KeySize]byte
	enc cipher.BlockMode
	dec cipher.BlockMode
}

// NewClassic returns an unkeyed classic session.
func NewClassic() *Classic {
	return &Classic{}
}

// SetKey replaces both directions' running state with fresh chains
// anchored at the zero IV.
func (s *Classic) SetKey(key []byte) error {
	block, err := newBlock(key)
	if err != nil {
		return err
	}
	copy(s.key[:], key)
	s.enc = cipher.NewCBCEncrypter(block, zeroIV[:])
	s.dec = cipher.NewCBCDecrypter(block, zeroIV[:])
	return nil
}

// Keyed reports whether SetKey has been called since the last Reset.
func (s *Classic) Keyed() bool {
	return s.enc != nil
}

// Encrypt enciphers bytes [0,16) of f in place, advancing the outbound chain.
func (s *Classic) Encrypt(f *frame.Frame) error {
	if s.enc == nil {
		return ErrNotKeyed
	}
	s.enc.CryptBlocks(f.Block(), f.Block())
	return nil
}

// Decrypt deciphers bytes [0,16) of f in place, advancing the inbound chain.
func (s *Classic) Decrypt(f *frame.Frame) error {
	if s.dec == nil {
		return ErrNotKeyed
	}
	s.dec.CryptBlocks(f.Block(), f.Block())
	return nil
}

// Seal writes the simple checksum and encrypts f for transmission.
func (s *Classic) Seal(f *frame.Frame) error {
	frame.WriteSimpleChecksum(f)
	return s.Encrypt(f)
}

// Open decrypts a received frame and validates its magic and checksum.
func (s *Classic) Open(f *frame.Frame) error {
	if err := s.Decrypt(f); err != nil {
		return err
	}
	if err := frame.VerifySimpleChecksum(f); err != nil {
		return err
	}
	return frame.VerifyClassicMagic(f)
}

// Reset zeroes the key and drops both chains.
func (s *Classic) Reset() {
	clear(s.key[:])
	s.enc = nil
	s.dec = nil
}

// Secure is the unchained cipher session of the secure channel.
type Secure struct {
	key   [KeySize]byte
	block cipher.Block
}

// NewSecure returns an unkeyed secure session.
func NewSecure() *Secure {
	return &Secure{}
}

// SetKey discards the current key and installs key.
func (s *Secure) SetKey(key []byte) error {
	block, err := newBlock(key)
	if err != nil {
		return err
	}
	clear(s.key[:])
	copy(s.key[:], key)
	s.block = block
	return nil
}

// Keyed reports whether SetKey has been called since the last Reset.
func (s *Secure) Keyed() bool {
	return s.block != nil
}

// Encrypt enciphers bytes [0,16) of f in place.
func (s *Secure) Encrypt(f *frame.Frame) error {
	if s.block == nil {
		return ErrNotKeyed
	}
	s.block.Encrypt(f.Block(), f.Block())
	return nil
}

// Decrypt deciphers bytes [0,16) of f in place.
func (s *Secure) Decrypt(f *frame.Frame) error {
	if s.block == nil {
		return ErrNotKeyed
	}
	s.block.Decrypt(f.Block(), f.Block())
	return nil
}

// Seal writes the security checksum and encrypts f for transmission.
func (s *Secure) Seal(f *frame.Frame) error {
	frame.WriteSecurityChecksum(f)
	return s.Encrypt(f)
}

// Open decrypts a received frame and validates its security checksum.
func (s *Secure) Open(f *frame.Frame) error {
	if err := s.Decrypt(f); err != nil {
		return err
	}
	return frame.VerifySecurityChecksum(f)
}

// Reset zeroes the key and drops the cipher.
func (s *Secure) Reset() {
	clear(s.key[:])
	s.block = nil
}
