package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/augustctl/augustctl-go/pkg/capture"
	"github.com/augustctl/augustctl-go/pkg/log"
)

// LoadRecords reads a capture. Files ending in .alog are protocol logs;
// anything else is treated as a sniffer export.
func LoadRecords(path string) ([]capture.Record, error) {
	if strings.EqualFold(filepath.Ext(path), ".alog") {
		reader, err := log.NewReader(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		defer reader.Close()
		return capture.ReadLog(reader)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()
	return capture.ReadSniffer(f)
}

// RunDecode deciphers the capture at path with offlineKey and writes one
// tab-separated line per frame: number, direction, channel, plaintext and
// description. Frames failing their checksum are flagged.
func RunDecode(path string, offlineKey []byte, w io.Writer) error {
	records, err := LoadRecords(path)
	if err != nil {
		return err
	}

	decoder, err := capture.NewDecoder(offlineKey)
	if err != nil {
		return err
	}

	for _, d := range decoder.DecodeAll(records) {
		op := "READ"
		if d.Direction == log.DirectionOut {
			op = "WRITE"
		}
		if d.Err != nil {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\terror: %v\n", d.Number, op, d.Channel, hex.EncodeToString(d.Data), d.Err)
			continue
		}
		if !d.ChecksumValid {
			fmt.Fprintf(w, "Checksum mismatch for frame %d\n", d.Number)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", d.Number, op, d.Channel, hex.EncodeToString(d.Plain.Bytes()), d.Description)
	}
	return nil
}
