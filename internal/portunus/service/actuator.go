package service

import (
	"log/slog"
	"time"

	"github.com/BrandonDHaskell/Portunus/controller/internal/device"
	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/types"
)

// DefaultUnlockHold is how long the lock stays open after a grant.
const DefaultUnlockHold = 3000 * time.Millisecond

// Actuator owns the lock state. It is driven from the polling loop only.
type Actuator struct {
	driver   device.LockDriver
	hold     time.Duration
	logger   *slog.Logger
	onChange func(types.LockState)

	state    types.LockState
	deadline time.Time
}

func NewActuator(driver device.LockDriver, hold time.Duration, logger *slog.Logger) *Actuator {
	if hold <= 0 {
		hold = DefaultUnlockHold
	}
	return &Actuator{
		driver: driver,
		hold:   hold,
		logger: logger.With("component", "actuator"),
		state:  types.LockLocked,
	}
}

// OnChange registers fn to be called after every settled state change.
func (a *Actuator) OnChange(fn func(types.LockState)) { a.onChange = fn }

// Grant unlocks the door and arms the re-lock deadline. It only acts from
// LOCKED: a grant while unlocked leaves the deadline where it is. Returns
// whether the door was unlocked by this call.
func (a *Actuator) Grant(now time.Time) bool {
	if a.state != types.LockLocked {
		return false
	}

	a.state = types.LockUnlocking
	if err := a.driver.Unlock(); err != nil {
		a.logger.Error("unlock failed, staying locked", "err", err)
		if err := a.driver.Lock(); err != nil {
			a.logger.Error("re-lock after failed unlock", "err", err)
		}
		a.state = types.LockLocked
		return false
	}

	a.state = types.LockUnlocked
	a.deadline = now.Add(a.hold)
	a.logger.Debug("unlocked", "until", a.deadline)
	a.notify()
	return true
}

// Tick re-locks once now reaches the deadline.
func (a *Actuator) Tick(now time.Time) {
	if a.state != types.LockUnlocked || now.Before(a.deadline) {
		return
	}
	if err := a.driver.Lock(); err != nil {
		// The state still goes to LOCKED: the next grant will drive the
		// outputs again and the board defaults to locked on its own.
		a.logger.Error("lock failed", "err", err)
	}
	a.state = types.LockLocked
	a.deadline = time.Time{}
	a.logger.Debug("locked")
	a.notify()
}

func (a *Actuator) IsUnlocked() bool       { return a.state == types.LockUnlocked }
func (a *Actuator) State() types.LockState { return a.state }

// Deadline is the pending re-lock instant, zero while locked.
func (a *Actuator) Deadline() time.Time { return a.deadline }

func (a *Actuator) notify() {
	if a.onChange != nil {
		a.onChange(a.state)
	}
}
