package session

import (
	"bytes"
	"crypto/aes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/augustctl/augustctl-go/pkg/frame"
)

var testKey = mustHex("00112233445566778899aabbccddeeff")

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func blockFrame(fill byte) frame.Frame {
	var f frame.Frame
	for i := range f {
		f[i] = fill + byte(i)
	}
	return f
}

func TestSetKeyRejectsWrongSize(t *testing.T) {
	assert.ErrorIs(t, NewClassic().SetKey(make([]byte, 8)), ErrKeySize)
	assert.ErrorIs(t, NewSecure().SetKey(make([]byte, 32)), ErrKeySize)
}

func TestUnkeyedSessionsRefuseToCipher(t *testing.T) {
	f := blockFrame(1)

	c := NewClassic()
	assert.False(t, c.Keyed())
	assert.ErrorIs(t, c.Encrypt(&f), ErrNotKeyed)
	assert.ErrorIs(t, c.Decrypt(&f), ErrNotKeyed)

	s := NewSecure()
	assert.False(t, s.Keyed())
	assert.ErrorIs(t, s.Encrypt(&f), ErrNotKeyed)
	assert.ErrorIs(t, s.Decrypt(&f), ErrNotKeyed)

	assert.Equal(t, blockFrame(1), f, "frame must be untouched")
}

func TestClassicTouchesOnlyFirstBlock(t *testing.T) {
	c := NewClassic()
	require.NoError(t, c.SetKey(testKey))

	f := blockFrame(0x40)
	orig := f
	require.NoError(t, c.Encrypt(&f))

	assert.NotEqual(t, orig[:16], f[:16])
	assert.Equal(t, orig[16:], f[16:])
}

func TestClassicChaining(t *testing.T) {
	sender := NewClassic()
	require.NoError(t, sender.SetKey(testKey))

	p1, p2 := blockFrame(0x10), blockFrame(0x80)
	c1, c2 := p1, p2
	require.NoError(t, sender.Encrypt(&c1))
	require.NoError(t, sender.Encrypt(&c2))

	t.Run("in order", func(t *testing.T) {
		receiver := NewClassic()
		require.NoError(t, receiver.SetKey(testKey))

		d1, d2 := c1, c2
		require.NoError(t, receiver.Decrypt(&d1))
		require.NoError(t, receiver.Decrypt(&d2))
		assert.Equal(t, p1, d1)
		assert.Equal(t, p2, d2)
	})

	t.Run("out of order", func(t *testing.T) {
		receiver := NewClassic()
		require.NoError(t, receiver.SetKey(testKey))

		d2, d1 := c2, c1
		require.NoError(t, receiver.Decrypt(&d2))
		require.NoError(t, receiver.Decrypt(&d1))
		assert.NotEqual(t, p2, d2)
		assert.NotEqual(t, p1, d1)
	})
}

func TestClassicSameBlockTwiceDiffers(t *testing.T) {
	c := NewClassic()
	require.NoError(t, c.SetKey(testKey))

	a, b := blockFrame(3), blockFrame(3)
	require.NoError(t, c.Encrypt(&a))
	require.NoError(t, c.Encrypt(&b))
	assert.NotEqual(t, a, b)
}

func TestClassicSetKeyRestartsChain(t *testing.T) {
	c := NewClassic()
	require.NoError(t, c.SetKey(testKey))

	first := blockFrame(5)
	require.NoError(t, c.Encrypt(&first))

	require.NoError(t, c.SetKey(testKey))
	again := blockFrame(5)
	require.NoError(t, c.Encrypt(&again))

	assert.Equal(t, first, again)
}

func TestClassicFirstBlockMatchesRawAES(t *testing.T) {
	// CBC under a zero IV degenerates to a plain block encryption for
	// the first block of the chain.
	block, err := aes.NewCipher(testKey)
	require.NoError(t, err)

	f := blockFrame(0x21)
	want := make([]byte, 16)
	block.Encrypt(want, f[:16])

	c := NewClassic()
	require.NoError(t, c.SetKey(testKey))
	require.NoError(t, c.Encrypt(&f))
	assert.Equal(t, want, f[:16])
}

func TestSecureIndependence(t *testing.T) {
	s := NewSecure()
	require.NoError(t, s.SetKey(testKey))

	a, b := blockFrame(7), blockFrame(7)
	require.NoError(t, s.Encrypt(&a))
	require.NoError(t, s.Encrypt(&b))
	assert.Equal(t, a, b)

	require.NoError(t, s.Decrypt(&b))
	assert.Equal(t, blockFrame(7), b)
}

func TestSecureRekeyReplacesState(t *testing.T) {
	other := mustHex("ffeeddccbbaa99887766554433221100")

	s := NewSecure()
	require.NoError(t, s.SetKey(testKey))
	offline := blockFrame(9)
	require.NoError(t, s.Encrypt(&offline))

	require.NoError(t, s.SetKey(other))
	rekeyed := blockFrame(9)
	require.NoError(t, s.Encrypt(&rekeyed))
	assert.NotEqual(t, offline, rekeyed)

	fresh := NewSecure()
	require.NoError(t, fresh.SetKey(other))
	want := blockFrame(9)
	require.NoError(t, fresh.Encrypt(&want))
	assert.Equal(t, want, rekeyed)
}

func TestClassicSealOpen(t *testing.T) {
	sender, receiver := NewClassic(), NewClassic()
	require.NoError(t, sender.SetKey(testKey))
	require.NoError(t, receiver.SetKey(testKey))

	f := frame.NewClassic(frame.OpForceLock)
	f[frame.OffsetMagic] = frame.MagicResponseB
	require.NoError(t, sender.Seal(&f))

	require.NoError(t, receiver.Open(&f))
	assert.Equal(t, frame.OpForceLock, f.ClassicOpcode())
}

func TestClassicOpenRejectsRequestMagic(t *testing.T) {
	sender, receiver := NewClassic(), NewClassic()
	require.NoError(t, sender.SetKey(testKey))
	require.NoError(t, receiver.SetKey(testKey))

	f := frame.NewClassic(frame.OpForceLock)
	require.NoError(t, sender.Seal(&f))

	assert.ErrorIs(t, receiver.Open(&f), frame.ErrUnexpectedMagic)
}

func TestClassicOpenRejectsCorruption(t *testing.T) {
	sender, receiver := NewClassic(), NewClassic()
	require.NoError(t, sender.SetKey(testKey))
	require.NoError(t, receiver.SetKey(testKey))

	f := frame.NewClassic(frame.OpForceLock)
	f[frame.OffsetMagic] = frame.MagicResponseA
	require.NoError(t, sender.Seal(&f))
	f[17] ^= 0xFF // cleartext trailer

	assert.ErrorIs(t, receiver.Open(&f), frame.ErrIntegrity)
}

func TestSecureSealOpen(t *testing.T) {
	s := NewSecure()
	require.NoError(t, s.SetKey(testKey))

	f := frame.NewSecure(frame.OpKeyExchange, 1)
	f.SetSecurePayload([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, s.Seal(&f))
	assert.False(t, bytes.Equal([]byte{1, 2, 3, 4, 5, 6, 7, 8}, f.SecurePayload()))

	require.NoError(t, s.Open(&f))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, f.SecurePayload())
}

func TestSecureOpenWithWrongKeyFails(t *testing.T) {
	s := NewSecure()
	require.NoError(t, s.SetKey(testKey))
	f := frame.NewSecure(frame.OpKeyExchange, 1)
	require.NoError(t, s.Seal(&f))

	wrong := NewSecure()
	require.NoError(t, wrong.SetKey(mustHex("0f0e0d0c0b0a09080706050403020100")))
	assert.ErrorIs(t, wrong.Open(&f), frame.ErrSecurityChecksum)
}

func TestReset(t *testing.T) {
	c, s := NewClassic(), NewSecure()
	require.NoError(t, c.SetKey(testKey))
	require.NoError(t, s.SetKey(testKey))

	c.Reset()
	s.Reset()

	assert.False(t, c.Keyed())
	assert.False(t, s.Keyed())
	assert.Equal(t, [KeySize]byte{}, c.key)
	assert.Equal(t, [KeySize]byte{}, s.key)
}
