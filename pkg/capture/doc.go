// Package capture decodes recorded lock traffic offline.
//
// A capture is a sequence of enciphered frames in the order they crossed
// the air, either as a protocol log written by pkg/log or as the
// tab-separated export of a BLE sniffer. Given the offline key, Decoder
// follows the key exchange the same way the two peers did and reveals
// every later frame.
//
// DecryptPreferences recovers the lock settings stored by the vendor's
// mobile app, which is where offline keys are usually found.
package capture
