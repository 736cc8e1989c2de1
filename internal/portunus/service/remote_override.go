package service

import (
	"log/slog"
	"sync/atomic"

	"github.com/BrandonDHaskell/Portunus/controller/internal/device"
)

// RemoteOverride is the LED flag set by the management plane. SetLed may
// be called from any goroutine; ApplyPending belongs to the polling loop.
type RemoteOverride struct {
	desired atomic.Bool

	led      device.LEDDriver
	logger   *slog.Logger
	onChange func(bool)

	// loop-owned
	applied    bool
	hasApplied bool
}

func NewRemoteOverride(led device.LEDDriver, logger *slog.Logger) *RemoteOverride {
	return &RemoteOverride{
		led:    led,
		logger: logger.With("component", "override"),
	}
}

// OnChange registers fn, called from the loop after the LED output changed.
func (o *RemoteOverride) OnChange(fn func(bool)) { o.onChange = fn }

func (o *RemoteOverride) SetLed(on bool) {
	o.desired.Store(on)
}

// ApplyPending drives the LED to the desired value if it differs from what
// was last driven, and returns the desired value. A failed write is retried
// on the next call.
func (o *RemoteOverride) ApplyPending() bool {
	want := o.desired.Load()
	if o.hasApplied && o.applied == want {
		return want
	}
	if err := o.led.SetLED(want); err != nil {
		o.logger.Warn("led write failed", "on", want, "err", err)
		return want
	}
	o.applied = want
	o.hasApplied = true
	if o.onChange != nil {
		o.onChange(want)
	}
	return want
}

func (o *RemoteOverride) Desired() bool { return o.desired.Load() }

// Applied reports the last value driven to the LED; ok is false before
// the first successful write.
func (o *RemoteOverride) Applied() (on, ok bool) {
	return o.applied, o.hasApplied
}
