package interactive

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/augustctl/augustctl-go/internal/locksim"
	"github.com/augustctl/augustctl-go/pkg/frame"
	"github.com/augustctl/augustctl-go/pkg/lock"
)

var testKey = []byte{
	0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77,
	0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff,
}

func newTestShell(t *testing.T) (*Shell, *locksim.Peripheral, *bytes.Buffer) {
	t.Helper()
	sim := locksim.New("sim-lock", testKey, 1)
	cfg := lock.DefaultConfig()
	cfg.OfflineKey = testKey
	cfg.OfflineKeyOffset = 1
	cfg.ResponseTimeout = 100 * time.Millisecond
	l, err := lock.New(sim, cfg)
	require.NoError(t, err)

	var out bytes.Buffer
	return newShell(l, time.Second, &out), sim, &out
}

func TestShellSession(t *testing.T) {
	s, sim, out := newTestShell(t)
	ctx := context.Background()

	assert.False(t, s.Execute(ctx, "connect"))
	assert.Contains(t, out.String(), "Connected to sim-lock")

	out.Reset()
	assert.False(t, s.Execute(ctx, "lock"))
	assert.Equal(t, "Locked\n", out.String())
	assert.Equal(t, locksim.StateLocked, sim.LockState())

	out.Reset()
	assert.False(t, s.Execute(ctx, "  STATUS  "))
	assert.Equal(t, "Lock is locked\n", out.String())

	out.Reset()
	assert.False(t, s.Execute(ctx, "u"))
	assert.Equal(t, "Unlocked\n", out.String())

	out.Reset()
	assert.False(t, s.Execute(ctx, "state"))
	assert.Equal(t, "sim-lock: READY\n", out.String())

	out.Reset()
	assert.False(t, s.Execute(ctx, "connect"))
	assert.Equal(t, "Already connected\n", out.String())

	out.Reset()
	assert.False(t, s.Execute(ctx, "disconnect"))
	assert.Equal(t, "Disconnected\n", out.String())
	assert.False(t, sim.Connected())

	assert.True(t, s.Execute(ctx, "quit"))
}

func TestShellCommandBeforeConnect(t *testing.T) {
	s, sim, out := newTestShell(t)

	assert.False(t, s.Execute(context.Background(), "status"))
	assert.Contains(t, out.String(), "Not connected")
	assert.Equal(t, 0, sim.Connects())
}

func TestShellIntegrityFailureDropsLink(t *testing.T) {
	s, sim, out := newTestShell(t)
	ctx := context.Background()
	require.False(t, s.Execute(ctx, "connect"))

	sim.Handlers.OnResponse = func(req locksim.Request, resp *frame.Frame) bool {
		if req.Opcode() == frame.OpStatus {
			resp[frame.OffsetMagic] = 0x00
		}
		return true
	}

	out.Reset()
	s.Execute(ctx, "status")
	assert.Contains(t, out.String(), "status failed")
	assert.Contains(t, out.String(), "Disconnected")
	assert.Equal(t, lock.StateDisconnected, s.lock.State())
	assert.False(t, sim.Connected())
}

func TestShellReconnectAfterFailedHandshake(t *testing.T) {
	s, sim, out := newTestShell(t)
	ctx := context.Background()

	fail := true
	sim.Handlers.OnResponse = func(req locksim.Request, resp *frame.Frame) bool {
		if fail {
			resp[0] = 0x77
		}
		return true
	}
	s.Execute(ctx, "connect")
	assert.Contains(t, out.String(), "Connect failed")
	assert.Equal(t, lock.StateTransportConnected, s.lock.State())

	fail = false
	out.Reset()
	s.Execute(ctx, "connect")
	assert.Contains(t, out.String(), "Connected to sim-lock")
	assert.Equal(t, 2, sim.Connects())
}

func TestShellUnknownCommand(t *testing.T) {
	s, _, out := newTestShell(t)
	assert.False(t, s.Execute(context.Background(), "open"))
	assert.Contains(t, out.String(), "Unknown command: open")
	assert.False(t, s.Execute(context.Background(), "   "))
}

func TestShellHelp(t *testing.T) {
	s, _, out := newTestShell(t)
	s.Execute(context.Background(), "help")
	for _, cmd := range []string{"connect", "disconnect", "status", "lock", "unlock", "quit"} {
		assert.Contains(t, out.String(), cmd)
	}
}
