// Package device declares the hardware collaborators the controller core
// drives. Implementations live in subpackages: serialio talks to an I/O
// board over a UART, sim is an in-memory stand-in for development and tests.
//
// Every method must return within a small fraction of a polling cycle.
// Anything that takes longer on the hardware (a tone, a display refresh)
// is started here and finished by the hardware.
package device

import "time"

// CredentialReader returns the UID bytes of a newly presented tag, or
// ok=false when no new tag arrived since the last call. It never blocks.
type CredentialReader interface {
	TryReadCredential() (uid []byte, ok bool)
}

// SensorReader exposes the latest raw sensor levels.
type SensorReader interface {
	ReadLightLevel() int
	ReadMotionLevel() bool
}

type LockDriver interface {
	Unlock() error
	Lock() error
}

// ToneDriver starts a tone and returns immediately.
type ToneDriver interface {
	Tone(freqHz int, d time.Duration) error
}

// Display shows short status lines. Row is zero based.
type Display interface {
	Show(row int, text string) error
	Clear() error
}

type LEDDriver interface {
	SetLED(on bool) error
}

// Board bundles every collaborator of a single controller board.
type Board interface {
	CredentialReader
	SensorReader
	LockDriver
	ToneDriver
	Display
	LEDDriver
	Close() error
}
