package capture

import (
	"errors"
	"fmt"

	"github.com/augustctl/augustctl-go/pkg/frame"
	"github.com/augustctl/augustctl-go/pkg/log"
	"github.com/augustctl/augustctl-go/pkg/session"
)

// Decoded is the plaintext view of a Record.
type Decoded struct {
	Record

	// Plain is the deciphered frame.
	Plain frame.Frame

	// ChecksumValid reports whether the channel's checksum held.
	ChecksumValid bool

	// Description names the command, or is empty when unknown.
	Description string

	// Err is set when the frame could not be deciphered.
	Err error
}

// Decoder replays a capture. Each direction of each channel has its own
// cipher chain, as on the air.
type Decoder struct {
	txClassic, rxClassic *session.Classic
	txSecure, rxSecure   *session.Secure

	clientHalf []byte
}

// NewDecoder creates a Decoder keyed with the offline key. Classic
// frames cannot be deciphered until a key exchange has been decoded.
func NewDecoder(offlineKey []byte) (*Decoder, error) {
	d := &Decoder{
		txClassic: session.NewClassic(),
		rxClassic: session.NewClassic(),
		txSecure:  session.NewSecure(),
		rxSecure:  session.NewSecure(),
	}
	if err := d.txSecure.SetKey(offlineKey); err != nil {
		return nil, err
	}
	if err := d.rxSecure.SetKey(offlineKey); err != nil {
		return nil, err
	}
	return d, nil
}

// Decode deciphers rec and advances the decoder state.
func (d *Decoder) Decode(rec Record) Decoded {
	out := Decoded{Record: rec}

	f, err := frame.Parse(rec.Data)
	if err != nil {
		out.Err = err
		return out
	}

	if rec.Channel == log.ChannelSecure {
		err = d.secureFor(rec.Direction).Decrypt(&f)
	} else {
		err = d.classicFor(rec.Direction).Decrypt(&f)
	}
	if err != nil {
		out.Err = err
		return out
	}
	out.Plain = f

	if rec.Channel == log.ChannelSecure {
		out.ChecksumValid = frame.VerifySecurityChecksum(&f) == nil
		out.Description = describeSecure(&f)
		if err := d.follow(&f); err != nil {
			out.Err = err
		}
	} else {
		out.ChecksumValid = frame.VerifySimpleChecksum(&f) == nil
		out.Description = describeClassic(&f)
	}
	return out
}

// DecodeAll decodes records in order.
func (d *Decoder) DecodeAll(records []Record) []Decoded {
	out := make([]Decoded, len(records))
	for i, rec := range records {
		out[i] = d.Decode(rec)
	}
	return out
}

// follow tracks the key exchange: the request carries the client half of
// the session key, the response the lock half.
func (d *Decoder) follow(f *frame.Frame) error {
	switch f.SecureOpcode() {
	case frame.OpKeyExchange:
		d.clientHalf = append([]byte(nil), f.SecurePayload()...)
	case frame.OpKeyExchangeResponse:
		if d.clientHalf == nil {
			return errors.New("key exchange response without request")
		}
		key := append(append([]byte(nil), d.clientHalf...), f.SecurePayload()...)
		for _, s := range []interface{ SetKey([]byte) error }{d.txClassic, d.rxClassic, d.txSecure, d.rxSecure} {
			if err := s.SetKey(key); err != nil {
				return fmt.Errorf("install session key: %w", err)
			}
		}
		d.clientHalf = nil
	}
	return nil
}

func (d *Decoder) classicFor(dir log.Direction) *session.Classic {
	if dir == log.DirectionOut {
		return d.txClassic
	}
	return d.rxClassic
}

func (d *Decoder) secureFor(dir log.Direction) *session.Secure {
	if dir == log.DirectionOut {
		return d.txSecure
	}
	return d.rxSecure
}
