package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/augustctl/augustctl-go/pkg/log"
)

// FilterOptions holds the textual filter flags shared by view and filter.
type FilterOptions struct {
	ConnID    string
	LockID    string
	TimeStart string
	TimeEnd   string
	Layer     string
	Direction string
	Category  string
	Channel   string
}

// BuildFilter parses the options into a log.Filter.
func BuildFilter(opts FilterOptions) (log.Filter, error) {
	filter := log.Filter{
		ConnectionID: opts.ConnID,
		LockID:       opts.LockID,
	}

	var err error
	if filter.TimeStart, err = parseTimeFlag("time-start", opts.TimeStart); err != nil {
		return filter, err
	}
	if filter.TimeEnd, err = parseTimeFlag("time-end", opts.TimeEnd); err != nil {
		return filter, err
	}
	if filter.Layer, err = optional(opts.Layer, ParseLayerFlag); err != nil {
		return filter, err
	}
	if filter.Direction, err = optional(opts.Direction, ParseDirectionFlag); err != nil {
		return filter, err
	}
	if filter.Category, err = optional(opts.Category, ParseCategoryFlag); err != nil {
		return filter, err
	}
	if filter.Channel, err = optional(opts.Channel, ParseChannelFlag); err != nil {
		return filter, err
	}
	return filter, nil
}

// optional parses s with parse, or returns nil when s is empty.
func optional[T any](s string, parse func(string) (T, error)) (*T, error) {
	if s == "" {
		return nil, nil
	}
	v, err := parse(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseTimeFlag(name, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s format: %w", name, err)
	}
	return &t, nil
}

// RunFilter copies the events of path matching opts into a new capture
// at output and reports the count to w.
func RunFilter(path, output string, opts FilterOptions, w io.Writer) error {
	filter, err := BuildFilter(opts)
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	out, err := log.NewFileLogger(output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}

	count := 0
	err = forEach(reader, func(event log.Event) error {
		out.Log(event)
		count++
		return nil
	})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Filtered %d events to %s\n", count, output)
	return nil
}
