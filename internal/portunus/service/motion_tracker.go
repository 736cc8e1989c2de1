package service

import (
	"time"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/types"
)

// MotionTracker turns the raw motion level into started/stopped edges.
//
// With a zero stability window it is a plain edge detector: the output is
// a pure function of the previous and current level. With a positive
// window (UpdateAt) a new level only counts once it has held for the
// whole window.
type MotionTracker struct {
	previous bool
	current  bool

	stability    time.Duration
	pending      bool
	pendingSince time.Time
	hasPending   bool
}

func NewMotionTracker(stability time.Duration) *MotionTracker {
	if stability < 0 {
		stability = 0
	}
	return &MotionTracker{stability: stability}
}

// Update shifts current into previous, stores level and reports the edge.
func (m *MotionTracker) Update(level bool) types.MotionEvent {
	m.previous = m.current
	m.current = level

	switch {
	case !m.previous && m.current:
		return types.MotionStarted
	case m.previous && !m.current:
		return types.MotionStopped
	default:
		return types.MotionNone
	}
}

// UpdateAt applies the stability window before feeding Update. Without a
// window it is Update.
func (m *MotionTracker) UpdateAt(level bool, now time.Time) types.MotionEvent {
	if m.stability == 0 {
		return m.Update(level)
	}

	if level == m.current {
		m.hasPending = false
		return m.Update(level)
	}

	if !m.hasPending || m.pending != level {
		m.pending = level
		m.pendingSince = now
		m.hasPending = true
	}
	if now.Sub(m.pendingSince) < m.stability {
		// Not stable yet: hold the last accepted level.
		return m.Update(m.current)
	}
	m.hasPending = false
	return m.Update(level)
}

func (m *MotionTracker) State() types.MotionState {
	if m.current {
		return types.MotionActive
	}
	return types.MotionIdle
}
