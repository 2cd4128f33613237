package log

import "time"

// Logger receives protocol log events.
type Logger interface {
	// Log records a protocol event. Implementations must be thread-safe
	// and must not block the caller for long.
	Log(event Event)
}

// NoopLogger discards all events. The zero value is ready to use.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Scope stamps the identifiers of one lock connection onto events.
// The zero value logs to NoopLogger.
type Scope struct {
	Logger       Logger
	ConnectionID string
	LockID       string
}

func (s Scope) log(e Event) {
	if s.Logger == nil {
		return
	}
	e.Timestamp = time.Now()
	e.ConnectionID = s.ConnectionID
	e.LockID = s.LockID
	s.Logger.Log(e)
}

// RawFrame logs enciphered bytes as seen on a characteristic.
func (s Scope) RawFrame(ch Channel, dir Direction, data []byte) {
	s.log(Event{
		Direction: dir,
		Layer:     LayerTransport,
		Category:  CategoryFrame,
		Channel:   ch,
		Frame: &FrameEvent{
			Size: len(data),
			Data: append([]byte(nil), data...),
		},
	})
}

// DecodedFrame logs the opcode of a frame that passed validation.
func (s Scope) DecodedFrame(ch Channel, dir Direction, size int, opcode byte) {
	s.log(Event{
		Direction: dir,
		Layer:     LayerSession,
		Category:  CategoryFrame,
		Channel:   ch,
		Frame:     &FrameEvent{Size: size, Opcode: &opcode},
	})
}

// StateChange logs a lock state transition.
func (s Scope) StateChange(entity StateEntity, from, to, reason string) {
	s.log(Event{
		Layer:    LayerLock,
		Category: CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   entity,
			OldState: from,
			NewState: to,
			Reason:   reason,
		},
	})
}

// Error logs err at layer with a short description of the operation.
func (s Scope) Error(layer Layer, ch Channel, context string, err error) {
	if err == nil {
		return
	}
	s.log(Event{
		Layer:    layer,
		Category: CategoryError,
		Channel:  ch,
		Error: &ErrorEventData{
			Layer:   layer,
			Message: err.Error(),
			Context: context,
		},
	})
}

var _ Logger = NoopLogger{}
