package capture

import (
	"bytes"
	"crypto/aes"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// preferencesKey is the fixed key the vendor app uses for its settings.
var preferencesKey = []byte("August#@3417r\x00\x00\x00")

// ErrNoCiphertext is returned when the preferences document holds no
// hex string value.
var ErrNoCiphertext = errors.New("no encrypted value in preferences")

var preferencesValue = regexp.MustCompile(`[0-9A-F]+</string>`)

// DecryptPreferences extracts the first uppercase hex string value of an
// Android shared-preferences XML document and deciphers it. Trailing NULs
// are removed; the result is usually JSON.
func DecryptPreferences(xml []byte) ([]byte, error) {
	m := preferencesValue.Find(xml)
	if m == nil {
		return nil, ErrNoCiphertext
	}
	ct, err := hex.DecodeString(string(bytes.TrimSuffix(m, []byte("</string>"))))
	if err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return DecryptPreferenceValue(ct)
}

// DecryptPreferenceValue deciphers a raw preferences value.
func DecryptPreferenceValue(ct []byte) ([]byte, error) {
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("decrypt preferences: ciphertext length %d is not a multiple of %d", len(ct), aes.BlockSize)
	}
	block, err := aes.NewCipher(preferencesKey)
	if err != nil {
		return nil, err
	}
	pt := make([]byte, len(ct))
	for i := 0; i < len(ct); i += aes.BlockSize {
		block.Decrypt(pt[i:i+aes.BlockSize], ct[i:i+aes.BlockSize])
	}
	return bytes.TrimRight(pt, "\x00"), nil
}

// EncryptPreferenceValue is the inverse of DecryptPreferenceValue, padding
// plaintext with NULs to a whole block.
func EncryptPreferenceValue(pt []byte) []byte {
	block, _ := aes.NewCipher(preferencesKey)
	n := (len(pt) + aes.BlockSize - 1) / aes.BlockSize * aes.BlockSize
	if n == 0 {
		n = aes.BlockSize
	}
	buf := make([]byte, n)
	copy(buf, pt)
	for i := 0; i < n; i += aes.BlockSize {
		block.Encrypt(buf[i:i+aes.BlockSize], buf[i:i+aes.BlockSize])
	}
	return buf
}
