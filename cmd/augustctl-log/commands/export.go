package commands

import (
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/augustctl/augustctl-go/pkg/log"
)

var csvHeader = []string{
	"timestamp", "connection_id", "lock_id", "direction", "layer",
	"category", "channel", "type", "opcode", "data",
}

// RunExport converts the log at path to jsonl or csv. An empty output
// writes to stdout.
func RunExport(path, format, output string) error {
	var export func(*log.Reader, io.Writer) error
	switch format {
	case "jsonl":
		export = exportJSONL
	case "csv":
		export = exportCSV
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	if output == "" {
		return export(reader, os.Stdout)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := export(reader, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	enc := json.NewEncoder(w)
	return forEach(reader, func(event log.Event) error {
		if err := enc.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		return nil
	})
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	err := forEach(reader, func(event log.Event) error {
		return cw.Write(csvRow(event))
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// csvRow flattens event in csvHeader order.
func csvRow(event log.Event) []string {
	var opcode, data string
	if f := event.Frame; f != nil {
		if f.Opcode != nil {
			opcode = fmt.Sprintf("0x%02x", *f.Opcode)
		}
		data = hex.EncodeToString(f.Data)
	}
	return []string{
		event.Timestamp.UTC().Format(timestampFormat),
		event.ConnectionID,
		event.LockID,
		event.Direction.String(),
		event.Layer.String(),
		event.Category.String(),
		event.Channel.String(),
		eventType(event),
		opcode,
		data,
	}
}
