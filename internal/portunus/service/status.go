package service

import (
	"sync"
	"time"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/types"
)

// Status is a point-in-time copy of the controller state.
type Status struct {
	ModuleID     string
	Phase        ScanPhase
	Lock         types.LockState
	UnlockUntil  time.Time
	Feedback     types.FeedbackMode
	Motion       types.MotionState
	LightLevel   int
	LEDDesired   bool
	LEDApplied   bool
	LastDecision *types.AccessDecision
	Counters     Counters
	StartedAt    time.Time
	UpdatedAt    time.Time
}

type Counters struct {
	Granted   uint64
	Denied    uint64
	Malformed uint64
	Ignored   uint64
}

// StatusBoard hands the loop's state to readers on other goroutines.
type StatusBoard struct {
	mu     sync.RWMutex
	status Status
}

func NewStatusBoard() *StatusBoard {
	return &StatusBoard{}
}

func (b *StatusBoard) Publish(s Status) {
	if s.LastDecision != nil {
		d := *s.LastDecision
		s.LastDecision = &d
	}
	b.mu.Lock()
	b.status = s
	b.mu.Unlock()
}

func (b *StatusBoard) Snapshot() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s := b.status
	if s.LastDecision != nil {
		d := *s.LastDecision
		s.LastDecision = &d
	}
	return s
}
