package ble

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"tinygo.org/x/bluetooth"
)

func toBluetoothUUID(id uuid.UUID) bluetooth.UUID {
	var b [16]byte = id
	return bluetooth.NewUUID(b)
}

func fromBluetoothUUID(id bluetooth.UUID) (uuid.UUID, error) {
	u, err := uuid.Parse(id.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("characteristic uuid %q: %w", id.String(), err)
	}
	return u, nil
}

func toBluetoothUUIDs(ids []uuid.UUID) []bluetooth.UUID {
	out := make([]bluetooth.UUID, len(ids))
	for i, id := range ids {
		out[i] = toBluetoothUUID(id)
	}
	return out
}

// normalizeID lower-cases an address or platform UUID and strips the
// separators noble-style identifiers omit.
func normalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.NewReplacer(":", "", "-", "").Replace(id)
}

// matches reports whether a scan result identified by address selects
// the wanted lock. An empty want accepts any device advertising the
// command service.
func matches(want, address string, advertisesService bool) bool {
	if want == "" {
		return advertisesService
	}
	return normalizeID(want) == normalizeID(address)
}
