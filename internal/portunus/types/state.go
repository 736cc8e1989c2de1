package types

import (
	"encoding/hex"
	"strings"
)

type LockState int

const (
	LockLocked LockState = iota
	LockUnlocking
	LockUnlocked
)

func (s LockState) String() string {
	switch s {
	case LockLocked:
		return "locked"
	case LockUnlocking:
		return "unlocking"
	case LockUnlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

type MotionState int

const (
	MotionIdle MotionState = iota
	MotionActive
)

func (s MotionState) String() string {
	if s == MotionActive {
		return "active"
	}
	return "idle"
}

// MotionEvent is the output of one MotionTracker update.
type MotionEvent int

const (
	MotionNone MotionEvent = iota
	MotionStarted
	MotionStopped
)

func (e MotionEvent) String() string {
	switch e {
	case MotionStarted:
		return "started"
	case MotionStopped:
		return "stopped"
	default:
		return "none"
	}
}

// FeedbackMode is the visual state shown by the feedback device.
type FeedbackMode int

const (
	FeedbackIdle FeedbackMode = iota
	FeedbackGranted
	FeedbackDenied
)

func (m FeedbackMode) String() string {
	switch m {
	case FeedbackGranted:
		return "granted"
	case FeedbackDenied:
		return "denied"
	default:
		return "idle"
	}
}

func hexUpper(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}
