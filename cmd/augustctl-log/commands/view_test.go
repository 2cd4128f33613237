package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/augustctl/augustctl-go/pkg/log"
)

func TestFormatFrameEvent(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	event := log.Event{
		Timestamp:    ts,
		ConnectionID: "abc12345-6789-0123-4567-890abcdef012",
		Direction:    log.DirectionOut,
		Layer:        log.LayerTransport,
		Category:     log.CategoryFrame,
		Channel:      log.ChannelSecure,
		Frame: &log.FrameEvent{
			Size: 18,
			Data: []byte{0x01, 0x02, 0x03},
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{
		"2026-01-28T10:15:32.123456Z",
		"[conn:abc12345]",
		"OUT TRANSPORT SECURE Frame",
		"Size: 18 bytes",
		"Data: 010203",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatSessionFrameShowsOpcode(t *testing.T) {
	op := uint8(0x8b)
	event := log.Event{
		Layer:    log.LayerSession,
		Category: log.CategoryFrame,
		Frame:    &log.FrameEvent{Size: 18, Opcode: &op},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)

	if !strings.Contains(buf.String(), "Opcode: 0x8b") {
		t.Errorf("expected opcode, got: %s", buf.String())
	}
	if strings.Contains(buf.String(), "Data:") {
		t.Errorf("unexpected data line: %s", buf.String())
	}
}

func TestFormatStateChangeEvent(t *testing.T) {
	event := log.Event{
		Layer:    log.LayerLock,
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityHandshake,
			OldState: "SESSION_KEYED",
			NewState: "READY",
			Reason:   "initialization confirmed",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{"LOCK State", "Entity: HANDSHAKE", "SESSION_KEYED -> READY", "Reason: initialization confirmed"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatErrorEvent(t *testing.T) {
	event := log.Event{
		Layer:    log.LayerLock,
		Category: log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerLock,
			Message: "request timeout",
			Context: "status",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "Message: request timeout") || !strings.Contains(output, "Context: status") {
		t.Errorf("expected error details, got: %s", output)
	}
}

func TestShortenConnID(t *testing.T) {
	if got := shortenConnID("abc12345-long"); got != "abc12345" {
		t.Errorf("shortenConnID = %q", got)
	}
	if got := shortenConnID("abc"); got != "abc" {
		t.Errorf("shortenConnID = %q", got)
	}
}

func TestRunViewFiltersByChannel(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, Category: log.CategoryFrame, Channel: log.ChannelSecure, Frame: &log.FrameEvent{Size: 18}},
		{Timestamp: ts, Category: log.CategoryFrame, Channel: log.ChannelClassic, Frame: &log.FrameEvent{Size: 18}},
	}
	path := createTestLogFile(t, events)

	secure := log.ChannelSecure
	var buf bytes.Buffer
	if err := RunView(path, log.Filter{Channel: &secure}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	if !strings.Contains(buf.String(), "SECURE") {
		t.Errorf("expected secure frame, got: %s", buf.String())
	}
	if strings.Contains(buf.String(), "CLASSIC") {
		t.Errorf("classic frame not filtered: %s", buf.String())
	}
}

func TestRunViewMissingFile(t *testing.T) {
	if err := RunView("/nonexistent/file.alog", log.Filter{}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for missing file")
	}
}
