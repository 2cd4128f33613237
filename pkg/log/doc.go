// Package log provides structured protocol capture for lock sessions.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events at three layers (transport, session, lock). It is
// separate from operational logging (slog) - protocol capture provides a
// machine-readable trace that the augustctl-log tool can view, export and
// decrypt offline.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For capture: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/augustctl/front-door.alog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(adapter, fileLogger)
//
// # Event Types
//
//   - Transport: raw enciphered frame bytes as written to or notified by
//     a characteristic (FrameEvent with Data)
//   - Session: decoded opcode of a validated frame (FrameEvent without
//     Data, so that key material never reaches the log in clear)
//   - Lock: handshake and connection state changes (StateChangeEvent)
//
// Errors at any layer have a dedicated event type.
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with the .alog extension.
package log
