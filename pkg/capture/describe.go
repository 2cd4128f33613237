package capture

import (
	"fmt"

	"github.com/augustctl/augustctl-go/pkg/frame"
)

// Status parameters readable with the status opcode.
var statusParameters = map[byte]string{
	0:  "STM32_FIRMWARE",
	2:  "LOCK_STATE",
	3:  "CURRENT_ANGLE",
	5:  "BATTERY_LEVEL",
	9:  "LOCK_EVENTS_UNREAD",
	10: "RTC",
	41: "GIT_HASH",
}

const statusParamLockState = 2

var secureOpcodes = map[byte]string{
	frame.OpKeyExchange:          "KEY_EXCHANGE",
	frame.OpKeyExchangeResponse:  "KEY_EXCHANGE_RESPONSE",
	frame.OpInitialization:       "INITIALIZATION",
	frame.OpInitializationResult: "INITIALIZATION_RESULT",
	frame.OpDisconnect:           "DISCONNECT",
	frame.OpDisconnectResponse:   "DISCONNECT_RESPONSE",
}

var classicOpcodes = map[byte]string{
	frame.OpStatus:      "GET_STATUS",
	frame.OpForceUnlock: "FORCE_UNLOCK",
	frame.OpForceLock:   "FORCE_LOCK",
}

// StatusParameterName returns the name of a status parameter.
func StatusParameterName(p byte) string {
	if name, ok := statusParameters[p]; ok {
		return name
	}
	return fmt.Sprintf("PARAM_%d", p)
}

func describeSecure(f *frame.Frame) string {
	name, ok := secureOpcodes[f.SecureOpcode()]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s offset=%d", name, f.KeyOffset())
}

func describeClassic(f *frame.Frame) string {
	name, ok := classicOpcodes[f.ClassicOpcode()]
	if !ok {
		return ""
	}

	switch f[frame.OffsetMagic] {
	case frame.MagicRequest:
		if f.ClassicOpcode() == frame.OpStatus {
			return fmt.Sprintf("%s %s", name, StatusParameterName(f[frame.OffsetPayload]))
		}
		return name
	case frame.MagicResponseA, frame.MagicResponseB:
		if f.ClassicOpcode() == frame.OpStatus {
			param := f[frame.OffsetPayload]
			if param == statusParamLockState {
				return fmt.Sprintf("%s_RESPONSE %s=%s", name, StatusParameterName(param), lockStateName(f.Status()))
			}
			return fmt.Sprintf("%s_RESPONSE %s=0x%02x", name, StatusParameterName(param), f.Status())
		}
		return name + "_RESPONSE"
	default:
		return ""
	}
}

func lockStateName(code byte) string {
	switch code {
	case 0x03:
		return "unlocked"
	case 0x05:
		return "locked"
	default:
		return fmt.Sprintf("unknown(0x%02x)", code)
	}
}
