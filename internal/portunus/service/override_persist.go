package service

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/store"
)

// LEDSetter is the write side of the remote override, shared by the MQTT
// bridge and the HTTP API.
type LEDSetter interface {
	SetLed(on bool)
}

// PersistentOverride hands every override value to the RemoteOverride and
// saves it, so the LED comes back in the same state after a restart.
type PersistentOverride struct {
	// mu keeps the live value and the saved value in the same order when
	// HTTP and MQTT write at once.
	mu sync.Mutex

	override *RemoteOverride
	state    store.OverrideStateStore
	logger   *slog.Logger
	now      func() time.Time
}

func NewPersistentOverride(o *RemoteOverride, s store.OverrideStateStore, logger *slog.Logger) *PersistentOverride {
	return &PersistentOverride{
		override: o,
		state:    s,
		logger:   logger.With("component", "override"),
		now:      time.Now,
	}
}

// SetLed never fails: a store error is logged and the override still
// takes effect for this run.
func (p *PersistentOverride) SetLed(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.override.SetLed(on)
	if err := p.state.SaveLED(on, p.now().UTC()); err != nil {
		p.logger.Warn("save led override", "on", on, "err", err)
	}
}

// Restore seeds the override from the saved value. It returns false when
// nothing was saved.
func (p *PersistentOverride) Restore() (bool, error) {
	on, at, err := p.state.LoadLED()
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	p.override.SetLed(on)
	p.logger.Info("led override restored", "on", on, "saved_at", at)
	return true, nil
}
