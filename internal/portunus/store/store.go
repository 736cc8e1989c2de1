package store

import (
	"context"
	"errors"
	"time"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/types"
)

// ErrNotFound is returned when a requested value has never been stored.
var ErrNotFound = errors.New("not found")

// TelemetryRecord is one persisted telemetry sample.
type TelemetryRecord struct {
	ReceivedAt time.Time
	Sample     types.Telemetry
}

type TelemetryStore interface {
	AppendTelemetry(ctx context.Context, rec TelemetryRecord) error
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// OverrideStateStore keeps the last remote LED override across restarts.
type OverrideStateStore interface {
	SaveLED(on bool, at time.Time) error
	// LoadLED returns ErrNotFound when nothing was saved yet.
	LoadLED() (on bool, at time.Time, err error)
}
