package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func newJSONAdapter(buf *bytes.Buffer) *SlogAdapter {
	handler := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogAdapter(slog.New(handler))
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestSlogAdapterLogsRawFrame(t *testing.T) {
	var buf bytes.Buffer
	adapter := newJSONAdapter(&buf)

	adapter.Log(Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-123",
		Direction:    DirectionIn,
		Layer:        LayerTransport,
		Category:     CategoryFrame,
		Channel:      ChannelClassic,
		LockID:       "front",
		Frame:        &FrameEvent{Size: 18, Data: []byte{0xDE, 0xAD}},
	})

	entry := decodeEntry(t, &buf)
	checks := map[string]any{
		"msg":        "protocol",
		"level":      "DEBUG",
		"conn_id":    "conn-123",
		"direction":  "IN",
		"channel":    "CLASSIC",
		"lock_id":    "front",
		"data":       "dead",
		"frame_size": float64(18),
	}
	for k, want := range checks {
		if entry[k] != want {
			t.Errorf("%s: got %v, want %v", k, entry[k], want)
		}
	}
}

func TestSlogAdapterLogsOpcode(t *testing.T) {
	var buf bytes.Buffer
	adapter := newJSONAdapter(&buf)

	op := uint8(0x8b)
	adapter.Log(Event{Layer: LayerSession, Frame: &FrameEvent{Size: 18, Opcode: &op}})

	entry := decodeEntry(t, &buf)
	if entry["opcode"] != "0x8b" {
		t.Errorf("opcode: got %v", entry["opcode"])
	}
	if _, ok := entry["data"]; ok {
		t.Error("session-layer frame must not log data")
	}
}

func TestSlogAdapterLogsStateChange(t *testing.T) {
	var buf bytes.Buffer
	adapter := newJSONAdapter(&buf)

	Scope{Logger: adapter}.StateChange(StateEntityHandshake, "SESSION_KEYED", "READY", "initialization acknowledged")

	entry := decodeEntry(t, &buf)
	if entry["entity"] != "HANDSHAKE" || entry["transition"] != "SESSION_KEYED -> READY" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if entry["reason"] != "initialization acknowledged" {
		t.Errorf("reason: got %v", entry["reason"])
	}
}

func TestSlogAdapterLogsErrorsAtWarn(t *testing.T) {
	var buf bytes.Buffer
	adapter := newJSONAdapter(&buf)

	Scope{Logger: adapter}.Error(LayerLock, ChannelNone, "connect", errors.New("unexpected opcode"))

	entry := decodeEntry(t, &buf)
	if entry["level"] != "WARN" {
		t.Errorf("level: got %v, want WARN", entry["level"])
	}
	if entry["error"] != "unexpected opcode" || entry["op"] != "connect" {
		t.Errorf("unexpected entry: %v", entry)
	}
}
