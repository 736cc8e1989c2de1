// Package sim is an in-memory Board used by the dev driver and by tests.
package sim

import (
	"sync"
	"time"
)

// ToneCall records one Tone invocation.
type ToneCall struct {
	FreqHz   int
	Duration time.Duration
}

// Board implements device.Board entirely in memory. Inputs are injected
// with PresentTag, SetMotion and SetLight; outputs are recorded and can
// be inspected with the accessor methods.
type Board struct {
	mu sync.Mutex

	tags   [][]byte
	motion bool
	light  int

	unlocked  bool
	unlocks   int
	locks     int
	tones     []ToneCall
	lines     [2]string
	led       bool
	ledWrites int

	// Fail* make the corresponding output return an error.
	FailUnlock  bool
	FailDisplay bool
	FailLED     bool
}

func New() *Board {
	return &Board{}
}

// PresentTag queues a tag read. The bytes are copied.
func (b *Board) PresentTag(uid []byte) {
	cp := append([]byte(nil), uid...)
	b.mu.Lock()
	b.tags = append(b.tags, cp)
	b.mu.Unlock()
}

func (b *Board) SetMotion(level bool) {
	b.mu.Lock()
	b.motion = level
	b.mu.Unlock()
}

func (b *Board) SetLight(level int) {
	b.mu.Lock()
	b.light = level
	b.mu.Unlock()
}

func (b *Board) TryReadCredential() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.tags) == 0 {
		return nil, false
	}
	uid := b.tags[0]
	b.tags = b.tags[1:]
	return uid, true
}

func (b *Board) ReadLightLevel() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.light
}

func (b *Board) ReadMotionLevel() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.motion
}

func (b *Board) Unlock() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailUnlock {
		return errUnlock
	}
	b.unlocked = true
	b.unlocks++
	return nil
}

func (b *Board) Lock() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unlocked = false
	b.locks++
	return nil
}

func (b *Board) Tone(freqHz int, d time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tones = append(b.tones, ToneCall{FreqHz: freqHz, Duration: d})
	return nil
}

func (b *Board) Show(row int, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailDisplay {
		return errDisplay
	}
	if row >= 0 && row < len(b.lines) {
		b.lines[row] = text
	}
	return nil
}

func (b *Board) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailDisplay {
		return errDisplay
	}
	b.lines = [2]string{}
	return nil
}

func (b *Board) SetLED(on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailLED {
		return errLED
	}
	b.led = on
	b.ledWrites++
	return nil
}

func (b *Board) Close() error { return nil }

func (b *Board) Unlocked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unlocked
}

// Counts returns how many times Unlock and Lock succeeded.
func (b *Board) Counts() (unlocks, locks int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unlocks, b.locks
}

func (b *Board) Tones() []ToneCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ToneCall(nil), b.tones...)
}

func (b *Board) Line(row int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if row < 0 || row >= len(b.lines) {
		return ""
	}
	return b.lines[row]
}

func (b *Board) LED() (on bool, writes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.led, b.ledWrites
}
