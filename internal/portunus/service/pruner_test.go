package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/service"
	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/store"
	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/store/memory"
	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/types"
)

func TestTelemetryPruner_DisabledWhenRetentionZero(t *testing.T) {
	ts := memory.NewTelemetryStore()
	pruner := service.NewTelemetryPruner(ts, service.PrunerConfig{
		RetentionDays: 0,
		IntervalHours: 1,
	}, silentLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pruner.Start(ctx)
	// Stop should return immediately without error.
	pruner.Stop()
}

func TestTelemetryPruner_PrunesOldSamples(t *testing.T) {
	ts := memory.NewTelemetryStore()
	ctx := context.Background()

	// One sample 40 days old, one from yesterday.
	for _, age := range []int{-40, -1} {
		if err := ts.AppendTelemetry(ctx, store.TelemetryRecord{
			ReceivedAt: time.Now().UTC().AddDate(0, 0, age),
			Sample:     types.Telemetry{ModuleID: "door-001"},
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	pruner := service.NewTelemetryPruner(ts, service.PrunerConfig{RetentionDays: 30}, silentLogger())
	if deleted := pruner.PruneNow(ctx); deleted != 1 {
		t.Errorf("expected 1 pruned, got %d", deleted)
	}
	if n := len(ts.Samples()); n != 1 {
		t.Errorf("expected the recent sample to survive, %d left", n)
	}
}

func TestTelemetryPruner_StartPrunesImmediately(t *testing.T) {
	ts := memory.NewTelemetryStore()
	ctx := context.Background()
	if err := ts.AppendTelemetry(ctx, store.TelemetryRecord{
		ReceivedAt: time.Now().UTC().AddDate(0, 0, -90),
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	pruner := service.NewTelemetryPruner(ts, service.PrunerConfig{RetentionDays: 7, IntervalHours: 1}, silentLogger())
	pruner.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for len(ts.Samples()) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("startup prune did not run")
		}
		time.Sleep(5 * time.Millisecond)
	}
	pruner.Stop()
}

func TestTelemetryPruner_StopIsIdempotent(t *testing.T) {
	ts := memory.NewTelemetryStore()
	pruner := service.NewTelemetryPruner(ts, service.PrunerConfig{
		RetentionDays: 30,
		IntervalHours: 1,
	}, silentLogger())

	ctx, cancel := context.WithCancel(context.Background())
	pruner.Start(ctx)

	cancel()
	// Multiple stops should not panic.
	pruner.Stop()
	pruner.Stop()
}

type failingTelemetryStore struct{ store.TelemetryStore }

func (failingTelemetryStore) PruneOlderThan(context.Context, time.Time) (int64, error) {
	return 0, errors.New("database is locked")
}

func TestTelemetryPruner_StatsTrackPasses(t *testing.T) {
	ts := memory.NewTelemetryStore()
	ctx := context.Background()
	if err := ts.AppendTelemetry(ctx, store.TelemetryRecord{
		ReceivedAt: time.Now().UTC().AddDate(0, 0, -40),
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	pruner := service.NewTelemetryPruner(ts, service.PrunerConfig{RetentionDays: 30}, silentLogger())
	pruner.PruneNow(ctx)
	pruner.PruneNow(ctx)

	st := pruner.Stats()
	if !st.Enabled || st.RetentionDays != 30 {
		t.Errorf("stats = %+v, want enabled with 30 days", st)
	}
	if st.Passes != 2 || st.Deleted != 1 || st.LastDeleted != 0 {
		t.Errorf("stats = %+v, want 2 passes, 1 deleted in total, 0 in the last", st)
	}
	if st.LastPass.IsZero() || st.LastError != "" {
		t.Errorf("stats = %+v", st)
	}
}

func TestTelemetryPruner_StatsKeepLastError(t *testing.T) {
	pruner := service.NewTelemetryPruner(failingTelemetryStore{}, service.PrunerConfig{RetentionDays: 1}, silentLogger())

	if deleted := pruner.PruneNow(context.Background()); deleted != 0 {
		t.Errorf("expected 0 deleted on error, got %d", deleted)
	}
	if st := pruner.Stats(); st.LastError != "database is locked" || st.Passes != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestTelemetryPruner_DisabledStats(t *testing.T) {
	pruner := service.NewTelemetryPruner(memory.NewTelemetryStore(), service.PrunerConfig{}, silentLogger())
	if pruner.Stats().Enabled {
		t.Error("retention 0 must report disabled")
	}
}
