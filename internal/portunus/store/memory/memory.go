package memory

import (
	"context"
	"sync"
	"time"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/store"
)

// TelemetryStore keeps telemetry samples in memory, oldest first.
type TelemetryStore struct {
	mu      sync.RWMutex
	samples []store.TelemetryRecord
}

func NewTelemetryStore() *TelemetryStore {
	return &TelemetryStore{}
}

func (s *TelemetryStore) AppendTelemetry(_ context.Context, rec store.TelemetryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}
	s.samples = append(s.samples, rec)
	return nil
}

func (s *TelemetryStore) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.samples[:0]
	var deleted int64
	for _, rec := range s.samples {
		if rec.ReceivedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.samples = kept
	return deleted, nil
}

// Samples returns a copy of the stored samples.  Test-only helper.
func (s *TelemetryStore) Samples() []store.TelemetryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.TelemetryRecord, len(s.samples))
	copy(out, s.samples)
	return out
}
