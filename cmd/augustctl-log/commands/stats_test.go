package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/augustctl/augustctl-go/pkg/log"
)

func TestStatsCountsByLayer(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, Layer: log.LayerTransport, Category: log.CategoryFrame},
		{Timestamp: ts, Layer: log.LayerTransport, Category: log.CategoryFrame},
		{Timestamp: ts, Layer: log.LayerSession, Category: log.CategoryFrame},
		{Timestamp: ts, Layer: log.LayerLock, Category: log.CategoryState},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"Total Events: 4", "TRANSPORT:", "SESSION:", "LOCK:"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestStatsTracksConnections(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, ConnectionID: "conn-one-1234", LockID: "aa:bb", Layer: log.LayerLock, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{Entity: log.StateEntityHandshake, NewState: "READY"}},
		{Timestamp: ts.Add(time.Second), ConnectionID: "conn-one-1234", Layer: log.LayerLock, Category: log.CategoryError,
			Error: &log.ErrorEventData{Layer: log.LayerLock, Message: "timeout"}},
		{Timestamp: ts.Add(2 * time.Second), ConnectionID: "conn-two-5678", Category: log.CategoryFrame,
			Channel: log.ChannelSecure, Frame: &log.FrameEvent{Size: 18}},
	}

	path := createTestLogFile(t, events)

	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	stats, err := CollectStats(reader)
	if err != nil {
		t.Fatalf("CollectStats failed: %v", err)
	}

	if len(stats.Connections) != 2 {
		t.Fatalf("expected 2 connections, got %d", len(stats.Connections))
	}
	one := stats.Connections["conn-one-1234"]
	if one.LockID != "aa:bb" || one.FinalState != "READY" || one.Errors != 1 {
		t.Errorf("unexpected connection stats: %+v", one)
	}
	if stats.Errors != 1 {
		t.Errorf("Errors = %d", stats.Errors)
	}
	if stats.EventsByChannel[log.ChannelSecure] != 1 {
		t.Errorf("secure channel count = %d", stats.EventsByChannel[log.ChannelSecure])
	}
	if got := stats.TimeRange.End.Sub(stats.TimeRange.Start); got != 2*time.Second {
		t.Errorf("time range = %s", got)
	}

	var buf bytes.Buffer
	printStats(&buf, stats)
	if !strings.Contains(buf.String(), "Lock: aa:bb") {
		t.Errorf("expected lock ID in output: %s", buf.String())
	}
}

func TestStatsEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}
