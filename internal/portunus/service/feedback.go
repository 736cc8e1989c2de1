package service

import (
	"log/slog"
	"time"

	"github.com/BrandonDHaskell/Portunus/controller/internal/device"
	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/types"
)

// Tone patterns and display texts.
const (
	grantedToneHz = 1000
	grantedToneMs = 500 * time.Millisecond
	deniedToneHz  = 300
	deniedToneMs  = 1000 * time.Millisecond

	textIdle     = "Scan Tag..."
	textDetected = "Tag Detected"
	textGranted  = "Access Granted!"
	textDenied   = "Access Denied!"
)

// FeedbackDevice signals decisions through the buzzer and the display.
// Every call returns without waiting for the tone to finish.
type FeedbackDevice struct {
	tone    device.ToneDriver
	display device.Display
	logger  *slog.Logger

	mode types.FeedbackMode
}

func NewFeedbackDevice(tone device.ToneDriver, display device.Display, logger *slog.Logger) *FeedbackDevice {
	return &FeedbackDevice{
		tone:    tone,
		display: display,
		logger:  logger.With("component", "feedback"),
	}
}

func (f *FeedbackDevice) SignalGranted() {
	f.mode = types.FeedbackGranted
	f.paint(textDetected, textGranted)
	f.beep(grantedToneHz, grantedToneMs)
}

func (f *FeedbackDevice) SignalDenied() {
	f.mode = types.FeedbackDenied
	f.paint(textDetected, textDenied)
	f.beep(deniedToneHz, deniedToneMs)
}

func (f *FeedbackDevice) SignalIdle() {
	f.mode = types.FeedbackIdle
	f.paint(textIdle, "")
}

func (f *FeedbackDevice) Mode() types.FeedbackMode { return f.mode }

func (f *FeedbackDevice) beep(hz int, d time.Duration) {
	if err := f.tone.Tone(hz, d); err != nil {
		f.logger.Warn("tone failed", "hz", hz, "err", err)
	}
}

func (f *FeedbackDevice) paint(line0, line1 string) {
	if err := f.display.Clear(); err != nil {
		f.logger.Debug("display clear failed", "err", err)
		return
	}
	if err := f.display.Show(0, line0); err != nil {
		f.logger.Debug("display write failed", "err", err)
		return
	}
	if line1 == "" {
		return
	}
	if err := f.display.Show(1, line1); err != nil {
		f.logger.Debug("display write failed", "err", err)
	}
}
