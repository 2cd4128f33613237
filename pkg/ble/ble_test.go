package ble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/augustctl/augustctl-go/pkg/transport"
)

func TestUUIDConversion(t *testing.T) {
	for _, id := range append(transport.CharacteristicUUIDs(), transport.ServiceUUID) {
		bt := toBluetoothUUID(id)
		assert.Equal(t, id.String(), bt.String())

		back, err := fromBluetoothUUID(bt)
		require.NoError(t, err)
		assert.Equal(t, id, back)
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name      string
		want      string
		address   string
		advertise bool
		match     bool
	}{
		{"any lock", "", "AA:BB:CC:DD:EE:FF", true, true},
		{"any device without service", "", "AA:BB:CC:DD:EE:FF", false, false},
		{"address", "aa:bb:cc:dd:ee:ff", "AA:BB:CC:DD:EE:FF", false, true},
		{"noble style id", "aabbccddeeff", "AA:BB:CC:DD:EE:FF", true, true},
		{"other address", "aa:bb:cc:dd:ee:00", "AA:BB:CC:DD:EE:FF", true, false},
		{"platform uuid", "2B1E1D8A-0C33-4F4A-9F4D-3C2B2A1A0F0E", "2b1e1d8a-0c33-4f4a-9f4d-3c2b2a1a0f0e", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, matches(tt.want, tt.address, tt.advertise))
		})
	}
}
