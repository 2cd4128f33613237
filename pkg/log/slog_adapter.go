package log

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger: frames and state
// changes at Debug, errors at Warn.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event as a single "protocol" record.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("conn_id", event.ConnectionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.Channel != ChannelNone {
		attrs = append(attrs, slog.String("channel", event.Channel.String()))
	}
	if event.LockID != "" {
		attrs = append(attrs, slog.String("lock_id", event.LockID))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs, event.Frame.attrs()...)
	case event.StateChange != nil:
		attrs = append(attrs, event.StateChange.attrs()...)
	case event.Error != nil:
		attrs = append(attrs, event.Error.attrs()...)
	}

	level := slog.LevelDebug
	if event.Category == CategoryError {
		level = slog.LevelWarn
	}
	a.logger.LogAttrs(context.Background(), level, "protocol", attrs...)
}

func (f *FrameEvent) attrs() []slog.Attr {
	out := []slog.Attr{slog.Int("frame_size", f.Size)}
	if len(f.Data) > 0 {
		out = append(out, slog.String("data", hex.EncodeToString(f.Data)))
	}
	if f.Opcode != nil {
		out = append(out, slog.String("opcode", fmt.Sprintf("0x%02x", *f.Opcode)))
	}
	return out
}

func (s *StateChangeEvent) attrs() []slog.Attr {
	out := []slog.Attr{
		slog.String("entity", s.Entity.String()),
		slog.String("transition", s.OldState+" -> "+s.NewState),
	}
	if s.Reason != "" {
		out = append(out, slog.String("reason", s.Reason))
	}
	return out
}

func (e *ErrorEventData) attrs() []slog.Attr {
	out := []slog.Attr{
		slog.String("error_layer", e.Layer.String()),
		slog.String("error", e.Message),
	}
	if e.Context != "" {
		out = append(out, slog.String("op", e.Context))
	}
	return out
}

var _ Logger = (*SlogAdapter)(nil)
