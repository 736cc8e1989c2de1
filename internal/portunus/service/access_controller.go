package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/BrandonDHaskell/Portunus/controller/internal/device"
	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/types"
)

// DefaultDwell is how long scans are ignored after a decision.
const DefaultDwell = 2000 * time.Millisecond

// ScanPhase is where the credential state machine rests between cycles.
// Presented, granted and denied are passed through within a single cycle.
type ScanPhase int

const (
	PhaseIdle ScanPhase = iota
	PhaseDwell
)

func (p ScanPhase) String() string {
	if p == PhaseDwell {
		return "dwell"
	}
	return "idle"
}

type ControllerConfig struct {
	ModuleID string

	// AllowAll grants every well-formed credential. Dev only.
	AllowAll bool

	Dwell time.Duration

	// TelemetryInterval is the period of telemetry events. Zero only
	// emits telemetry when motion changes.
	TelemetryInterval time.Duration
}

type ControllerDependencies struct {
	Reader   device.CredentialReader
	Sensors  device.SensorReader
	Store    *CredentialStore
	Actuator *Actuator
	Feedback *FeedbackDevice
	Motion   *MotionTracker
	Override *RemoteOverride

	Events EventSink    // optional
	Status *StatusBoard // optional
	Logger *slog.Logger

	// NewID returns decision ids. Defaults to uuid.NewString.
	NewID func() string
}

// AccessController runs one polling cycle at a time: credential handling,
// motion tracking and the remote LED override, always in that order. All
// of its state is owned by the goroutine calling Cycle.
type AccessController struct {
	cfg      ControllerConfig
	reader   device.CredentialReader
	sensors  device.SensorReader
	store    *CredentialStore
	actuator *Actuator
	feedback *FeedbackDevice
	motion   *MotionTracker
	override *RemoteOverride
	events   EventSink
	status   *StatusBoard
	logger   *slog.Logger
	newID    func() string

	started       bool
	startedAt     time.Time
	phase         ScanPhase
	dwellDeadline time.Time
	light         int
	nextTelemetry time.Time
	telemetryDue  bool
	lastDecision  *types.AccessDecision
	counters      Counters
	now           time.Time
}

func NewAccessController(cfg ControllerConfig, d ControllerDependencies) *AccessController {
	if cfg.Dwell <= 0 {
		cfg.Dwell = DefaultDwell
	}
	events := d.Events
	if events == nil {
		events = NopSink{}
	}
	newID := d.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	c := &AccessController{
		cfg:      cfg,
		reader:   d.Reader,
		sensors:  d.Sensors,
		store:    d.Store,
		actuator: d.Actuator,
		feedback: d.Feedback,
		motion:   d.Motion,
		override: d.Override,
		events:   events,
		status:   d.Status,
		logger:   d.Logger.With("component", "controller"),
		newID:    newID,
	}

	c.actuator.OnChange(func(s types.LockState) {
		c.events.Emit(Event{Type: EventLockState, At: c.now, Data: LockChange{State: s, Name: s.String()}})
	})
	c.override.OnChange(func(on bool) {
		c.logger.Info("led override applied", "on", on)
		c.events.Emit(Event{Type: EventLEDState, At: c.now, Data: LEDChange{On: on}})
	})

	return c
}

// Cycle advances every concern by one polling step.
func (c *AccessController) Cycle(now time.Time) {
	c.now = now
	if !c.started {
		c.started = true
		c.startedAt = now
		c.feedback.SignalIdle()
	}

	c.actuator.Tick(now)
	c.handleCredential(now)
	c.trackMotion(now)
	c.light = clampLight(c.sensors.ReadLightLevel())
	c.override.ApplyPending()
	c.maybeTelemetry(now)
	c.publishStatus(now)
}

func (c *AccessController) handleCredential(now time.Time) {
	if c.phase == PhaseDwell {
		if now.Before(c.dwellDeadline) {
			// Scans during the dwell are dropped, not queued.
			if raw, ok := c.reader.TryReadCredential(); ok {
				c.counters.Ignored++
				c.logger.Debug("scan ignored during dwell", "uid", fmt.Sprintf("%X", raw))
			}
			return
		}
		c.phase = PhaseIdle
		c.feedback.SignalIdle()
	}

	raw, ok := c.reader.TryReadCredential()
	if !ok {
		return
	}

	d := c.Decide(raw, now)
	if d.Granted {
		if !c.actuator.Grant(now) && !c.actuator.IsUnlocked() {
			c.logger.Warn("granted but the lock did not open", "decision", d.ID)
		}
		c.feedback.SignalGranted()
		c.counters.Granted++
	} else {
		c.feedback.SignalDenied()
		c.counters.Denied++
		if d.Reason == types.ReasonMalformedCard {
			c.counters.Malformed++
		}
	}

	c.phase = PhaseDwell
	c.dwellDeadline = now.Add(c.cfg.Dwell)
	c.lastDecision = &d

	c.logger.Info("access decision",
		"decision", d.ID, "card", d.CardID(), "granted", d.Granted, "reason", d.Reason)
	c.events.Emit(Event{Type: EventAccessDecision, At: now, Data: d})
}

// Decide turns the bytes of one read into a decision. Anything that is not
// exactly one credential long is denied.
func (c *AccessController) Decide(raw []byte, now time.Time) types.AccessDecision {
	d := types.AccessDecision{
		ID:        c.newID(),
		ModuleID:  c.cfg.ModuleID,
		Raw:       append([]byte(nil), raw...),
		Timestamp: now,
	}

	cred, err := types.CredentialFromBytes(raw)
	if err != nil {
		d.Reason = types.ReasonMalformedCard
		return d
	}
	d.Credential = cred

	switch {
	case c.cfg.AllowAll:
		d.Granted = true
		d.Reason = types.ReasonAllowAll
	case c.store.IsAuthorized(cred):
		d.Granted = true
		d.Reason = types.ReasonCardAllowed
	default:
		d.Reason = types.ReasonCardNotAllowed
	}
	return d
}

func (c *AccessController) trackMotion(now time.Time) {
	ev := c.motion.UpdateAt(c.sensors.ReadMotionLevel(), now)
	if ev == types.MotionNone {
		return
	}
	switch ev {
	case types.MotionStarted:
		c.logger.Info("motion detected")
	case types.MotionStopped:
		c.logger.Info("motion stopped")
	}
	c.telemetryDue = true
	c.events.Emit(Event{Type: EventMotion, At: now, Data: MotionChange{
		Event: ev,
		State: c.motion.State(),
		Name:  ev.String(),
	}})
}

func (c *AccessController) maybeTelemetry(now time.Time) {
	periodic := c.cfg.TelemetryInterval > 0 && !now.Before(c.nextTelemetry)
	if !periodic && !c.telemetryDue {
		return
	}
	c.telemetryDue = false
	if c.cfg.TelemetryInterval > 0 {
		c.nextTelemetry = now.Add(c.cfg.TelemetryInterval)
	}
	c.events.Emit(Event{Type: EventTelemetry, At: now, Data: c.Telemetry(now)})
}

// Telemetry samples the state reported to the management plane.
func (c *AccessController) Telemetry(now time.Time) types.Telemetry {
	return types.Telemetry{
		ModuleID:   c.cfg.ModuleID,
		UptimeS:    uint64(now.Sub(c.startedAt) / time.Second),
		LightLevel: c.light,
		Motion:     c.motion.State() == types.MotionActive,
		Locked:     !c.actuator.IsUnlocked(),
		LED:        c.override.Desired(),
		SampledAt:  now,
	}
}

func (c *AccessController) publishStatus(now time.Time) {
	if c.status == nil {
		return
	}
	applied, _ := c.override.Applied()
	c.status.Publish(Status{
		ModuleID:     c.cfg.ModuleID,
		Phase:        c.phase,
		Lock:         c.actuator.State(),
		UnlockUntil:  c.actuator.Deadline(),
		Feedback:     c.feedback.Mode(),
		Motion:       c.motion.State(),
		LightLevel:   c.light,
		LEDDesired:   c.override.Desired(),
		LEDApplied:   applied,
		LastDecision: c.lastDecision,
		Counters:     c.counters,
		StartedAt:    c.startedAt,
		UpdatedAt:    now,
	})
}

func (c *AccessController) Phase() ScanPhase { return c.phase }

func clampLight(v int) int {
	if v < 0 {
		return 0
	}
	if v > types.MaxLightLevel {
		return types.MaxLightLevel
	}
	return v
}
