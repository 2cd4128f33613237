package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/augustctl/augustctl-go/pkg/log"
)

// Stats summarizes a capture.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	EventsByChannel   map[log.Channel]int
	Connections       map[string]*ConnectionStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// ConnectionStats summarizes one connect..disconnect cycle.
type ConnectionStats struct {
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
	LockID     string
	FinalState string
	Errors     int
}

func newStats() *Stats {
	return &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		EventsByChannel:   make(map[log.Channel]int),
		Connections:       make(map[string]*ConnectionStats),
	}
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	if event.Frame != nil {
		s.EventsByDirection[event.Direction]++
	}
	if event.Channel != log.ChannelNone {
		s.EventsByChannel[event.Channel]++
	}
	if event.Error != nil {
		s.Errors++
	}

	ts := event.Timestamp
	if s.TimeRange.Start.IsZero() || ts.Before(s.TimeRange.Start) {
		s.TimeRange.Start = ts
	}
	if ts.After(s.TimeRange.End) {
		s.TimeRange.End = ts
	}

	conn := s.Connections[event.ConnectionID]
	if conn == nil {
		conn = &ConnectionStats{FirstSeen: ts, LastSeen: ts}
		s.Connections[event.ConnectionID] = conn
	}
	conn.Events++
	if ts.After(conn.LastSeen) {
		conn.LastSeen = ts
	}
	if conn.LockID == "" {
		conn.LockID = event.LockID
	}
	if event.StateChange != nil {
		conn.FinalState = event.StateChange.NewState
	}
	if event.Error != nil {
		conn.Errors++
	}
}

// CollectStats reads every event of reader.
func CollectStats(reader *log.Reader) (*Stats, error) {
	stats := newStats()
	err := forEach(reader, func(event log.Event) error {
		stats.add(event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// RunStats prints statistics about the log at path.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats, err := CollectStats(reader)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

type countKey interface {
	comparable
	fmt.Stringer
}

// printCounts prints a titled block of non-zero counts in keys order.
func printCounts[K countKey](w io.Writer, title string, counts map[K]int, keys ...K) {
	fmt.Fprintln(w, title)
	for _, k := range keys {
		if n := counts[k]; n > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", k.String()+":", n)
		}
	}
	fmt.Fprintln(w)
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Lock Protocol Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
	}
	fmt.Fprintf(w, "Total Events: %d\n\n", stats.TotalEvents)

	printCounts(w, "Events by Layer:", stats.EventsByLayer, log.LayerTransport, log.LayerSession, log.LayerLock)
	printCounts(w, "Events by Category:", stats.EventsByCategory, log.CategoryFrame, log.CategoryState, log.CategoryError)
	printCounts(w, "Frames by Direction:", stats.EventsByDirection, log.DirectionOut, log.DirectionIn)
	printCounts(w, "Frames by Channel:", stats.EventsByChannel, log.ChannelSecure, log.ChannelClassic)

	fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))
	ids := make([]string, 0, len(stats.Connections))
	for id := range stats.Connections {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return stats.Connections[ids[i]].FirstSeen.Before(stats.Connections[ids[j]].FirstSeen)
	})
	for _, id := range ids {
		c := stats.Connections[id]
		fmt.Fprintf(w, "  [%s] %d events over %s\n", shortenConnID(id), c.Events, c.LastSeen.Sub(c.FirstSeen).Round(time.Millisecond))
		if c.LockID != "" {
			fmt.Fprintf(w, "      Lock: %s\n", c.LockID)
		}
		if c.FinalState != "" {
			fmt.Fprintf(w, "      Final state: %s\n", c.FinalState)
		}
		if c.Errors > 0 {
			fmt.Fprintf(w, "      Errors: %d\n", c.Errors)
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintf(w, "\nErrors: %d\n", stats.Errors)
	}
}
