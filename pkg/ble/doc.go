// Package ble binds the lock transport to a real Bluetooth adapter via
// tinygo.org/x/bluetooth (BlueZ over D-Bus on Linux, CoreBluetooth on
// macOS, WinRT on Windows).
//
// Scanner finds a lock advertising the command service; Peripheral
// implements transport.Peripheral on top of the discovered device.
package ble
