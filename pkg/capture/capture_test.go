package capture

import (
	"context"
	"encoding/hex"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/augustctl/augustctl-go/internal/locksim"
	"github.com/augustctl/augustctl-go/pkg/frame"
	"github.com/augustctl/augustctl-go/pkg/lock"
	"github.com/augustctl/augustctl-go/pkg/log"
	"github.com/augustctl/augustctl-go/pkg/session"
)

var offlineKey = []byte{
	0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77,
	0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff,
}

// recordSession runs a full lock session against the simulator and
// returns the path of its protocol log.
func recordSession(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.alog")
	fl, err := log.NewFileLogger(path)
	require.NoError(t, err)

	sim := locksim.New("sim-lock", offlineKey, 3)
	sim.SetLockState(locksim.StateLocked)

	cfg := lock.DefaultConfig()
	cfg.OfflineKey = offlineKey
	cfg.OfflineKeyOffset = 3
	cfg.ResponseTimeout = time.Second
	cfg.ProtocolLogger = fl
	l, err := lock.New(sim, cfg)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, l.Connect(ctx))
	_, err = l.Status(ctx)
	require.NoError(t, err)
	_, err = l.ForceUnlock(ctx)
	require.NoError(t, err)
	require.NoError(t, l.Disconnect(ctx))
	require.NoError(t, fl.Close())
	return path
}

func TestDecodeProtocolLog(t *testing.T) {
	path := recordSession(t)

	r, err := log.NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	records, err := ReadLog(r)
	require.NoError(t, err)
	require.Len(t, records, 10)

	d, err := NewDecoder(offlineKey)
	require.NoError(t, err)

	var descriptions []string
	for _, dec := range d.DecodeAll(records) {
		require.NoError(t, dec.Err, "frame %d", dec.Number)
		assert.True(t, dec.ChecksumValid, "frame %d", dec.Number)
		descriptions = append(descriptions, dec.Description)
	}

	assert.Equal(t, []string{
		"KEY_EXCHANGE offset=3",
		"KEY_EXCHANGE_RESPONSE offset=3",
		"INITIALIZATION offset=3",
		"INITIALIZATION_RESULT offset=3",
		"GET_STATUS LOCK_STATE",
		"GET_STATUS_RESPONSE LOCK_STATE=locked",
		"FORCE_UNLOCK",
		"FORCE_UNLOCK_RESPONSE",
		"DISCONNECT offset=0",
		"DISCONNECT_RESPONSE offset=0",
	}, descriptions)
}

func TestDecodeClassicBeforeKeyExchange(t *testing.T) {
	d, err := NewDecoder(offlineKey)
	require.NoError(t, err)

	dec := d.Decode(Record{Channel: log.ChannelClassic, Data: make([]byte, frame.Size)})
	assert.ErrorIs(t, dec.Err, session.ErrNotKeyed)

	dec = d.Decode(Record{Channel: log.ChannelSecure, Data: []byte{1, 2, 3}})
	assert.ErrorIs(t, dec.Err, frame.ErrMalformedFrame)
}

func TestDecodeWrongOfflineKey(t *testing.T) {
	path := recordSession(t)
	r, err := log.NewReader(path)
	require.NoError(t, err)
	defer r.Close()
	records, err := ReadLog(r)
	require.NoError(t, err)

	wrong := make([]byte, 16)
	d, err := NewDecoder(wrong)
	require.NoError(t, err)

	dec := d.Decode(records[0])
	require.NoError(t, dec.Err)
	assert.False(t, dec.ChecksumValid)
}

func TestNewDecoderRejectsBadKey(t *testing.T) {
	_, err := NewDecoder([]byte{1, 2, 3})
	assert.ErrorIs(t, err, session.ErrKeySize)
}

func TestReadSniffer(t *testing.T) {
	sec := session.NewSecure()
	require.NoError(t, sec.SetKey(offlineKey))
	req := frame.NewSecure(frame.OpKeyExchange, 1)
	req.SetSecurePayload([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, sec.Seal(&req))

	// Sniffer exports separate bytes with colons.
	colon := strings.Join(splitPairs(hex.EncodeToString(req.Bytes())), ":")

	input := strings.Join([]string{
		"No.\tOpcode\tHandle\tValue",
		"12\t18\t38\t" + colon,
		"13\t27\t41\t" + hex.EncodeToString(req.Bytes()),
		"14\t18\t44\t" + hex.EncodeToString(req.Bytes()),
		"15\t18\t38\tdeadbeef",
		"",
	}, "\n")

	records, err := ReadSniffer(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, 12, records[0].Number)
	assert.Equal(t, log.DirectionOut, records[0].Direction)
	assert.Equal(t, log.ChannelSecure, records[0].Channel)
	assert.Equal(t, req.Bytes(), records[0].Data)

	assert.Equal(t, log.DirectionIn, records[1].Direction)
	assert.Equal(t, log.ChannelSecure, records[1].Channel)

	assert.Equal(t, log.ChannelClassic, records[2].Channel)

	d, err := NewDecoder(offlineKey)
	require.NoError(t, err)
	dec := d.Decode(records[0])
	require.NoError(t, dec.Err)
	assert.True(t, dec.ChecksumValid)
	assert.Equal(t, "KEY_EXCHANGE offset=1", dec.Description)
}

func splitPairs(s string) []string {
	var out []string
	for i := 0; i+2 <= len(s); i += 2 {
		out = append(out, s[i:i+2])
	}
	return out
}

func TestStatusParameterName(t *testing.T) {
	assert.Equal(t, "BATTERY_LEVEL", StatusParameterName(5))
	assert.Equal(t, "GIT_HASH", StatusParameterName(41))
	assert.Equal(t, "PARAM_7", StatusParameterName(7))
}

func TestDecryptPreferences(t *testing.T) {
	settings := `{"bluetoothAddress":"AA:BB:CC:DD:EE:FF","offlineKey":"00112233445566778899AABBCCDDEEFF","offlineKeyOffset":1}`
	ct := EncryptPreferenceValue([]byte(settings))
	assert.Zero(t, len(ct)%16)

	xml := `<?xml version='1.0' encoding='utf-8' standalone='yes' ?>
<map>
    <string name="LockSettingsPreferences">` + strings.ToUpper(hex.EncodeToString(ct)) + `</string>
</map>`

	pt, err := DecryptPreferences([]byte(xml))
	require.NoError(t, err)
	assert.Equal(t, settings, string(pt))
}

func TestDecryptPreferencesErrors(t *testing.T) {
	_, err := DecryptPreferences([]byte("<map></map>"))
	assert.ErrorIs(t, err, ErrNoCiphertext)

	_, err = DecryptPreferenceValue(make([]byte, 15))
	assert.Error(t, err)
}
