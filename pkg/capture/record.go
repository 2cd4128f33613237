package capture

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/augustctl/augustctl-go/pkg/frame"
	"github.com/augustctl/augustctl-go/pkg/log"
)

// Sniffer export conventions: ATT opcode 18 is a write request, and
// handles 38 and 41 belong to the secure characteristic pair.
const (
	attWriteRequest     = 18
	secureWriteHandle   = 38
	secureNotifyHandle  = 41
	snifferFieldCount   = 4
	snifferFieldFrame   = 0
	snifferFieldOpcode  = 1
	snifferFieldHandle  = 2
	snifferFieldPayload = 3
)

// Record is one captured frame.
type Record struct {
	// Number is the frame number in the source capture.
	Number int

	// Direction is DirectionOut for client writes.
	Direction log.Direction

	// Channel is the characteristic pair the frame travelled on.
	Channel log.Channel

	// Data is the enciphered frame.
	Data []byte
}

// ReadSniffer parses a sniffer export of the form
// "frame<TAB>opcode<TAB>handle<TAB>hex". Lines with another shape or a
// payload that is not a full frame are skipped.
func ReadSniffer(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")
		if len(fields) != snifferFieldCount {
			continue
		}
		data, err := hex.DecodeString(strings.ReplaceAll(fields[snifferFieldPayload], ":", ""))
		if err != nil || len(data) != frame.Size {
			continue
		}
		number, err := strconv.Atoi(fields[snifferFieldFrame])
		if err != nil {
			continue
		}
		opcode, err := strconv.Atoi(fields[snifferFieldOpcode])
		if err != nil {
			continue
		}
		handle, err := strconv.Atoi(fields[snifferFieldHandle])
		if err != nil {
			continue
		}

		rec := Record{
			Number:    number,
			Direction: log.DirectionIn,
			Channel:   log.ChannelClassic,
			Data:      data,
		}
		if opcode == attWriteRequest {
			rec.Direction = log.DirectionOut
		}
		if handle == secureWriteHandle || handle == secureNotifyHandle {
			rec.Channel = log.ChannelSecure
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}
	return records, nil
}

// ReadLog collects the transport-layer frames of a protocol log.
// Events are numbered from 1 in stream order.
func ReadLog(r *log.Reader) ([]Record, error) {
	var records []Record
	n := 0
	for {
		event, err := r.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, fmt.Errorf("read protocol log: %w", err)
		}
		n++
		if event.Layer != log.LayerTransport || event.Frame == nil || len(event.Frame.Data) != frame.Size {
			continue
		}
		records = append(records, Record{
			Number:    n,
			Direction: event.Direction,
			Channel:   event.Channel,
			Data:      event.Frame.Data,
		})
	}
}
