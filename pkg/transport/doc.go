// Package transport binds the lock protocol to an abstract BLE peripheral.
//
// The peripheral (radio, GATT discovery, characteristic I/O) is an
// external collaborator described by the Peripheral and Characteristic
// interfaces; package ble provides an implementation on top of
// tinygo.org/x/bluetooth and internal/locksim a simulated lock.
//
// # Channels
//
// The lock exposes two characteristic pairs in one GATT service:
//
//	┌─────────┬──────────────────────────────────────┬──────────────────────────────────────┐
//	│ channel │ write                                │ notify                               │
//	├─────────┼──────────────────────────────────────┼──────────────────────────────────────┤
//	│ classic │ bd4ac611-0b45-11e3-8ffd-0800200c9a66 │ bd4ac612-0b45-11e3-8ffd-0800200c9a66 │
//	│ secure  │ bd4ac613-0b45-11e3-8ffd-0800200c9a66 │ bd4ac614-0b45-11e3-8ffd-0800200c9a66 │
//	└─────────┴──────────────────────────────────────┴──────────────────────────────────────┘
//
// A Channel pairs each write with the very next notification on the same
// channel. Only one request may be in flight per channel; a second
// Execute fails with ErrRequestInFlight instead of stealing the reply.
package transport
