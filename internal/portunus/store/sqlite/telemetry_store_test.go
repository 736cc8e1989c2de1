package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/store"
	sqlitestore "github.com/BrandonDHaskell/Portunus/controller/internal/portunus/store/sqlite"
	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/types"
)

// ═══════════════════════════════════════════════════════════════════════════
// AppendTelemetry
// ═══════════════════════════════════════════════════════════════════════════

func TestTelemetryStore_AppendTelemetry_InsertsRow(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ts := sqlitestore.NewTelemetryStore(conn, w)

	now := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	err := ts.AppendTelemetry(context.Background(), store.TelemetryRecord{
		ReceivedAt: now,
		Sample: types.Telemetry{
			ModuleID:   "door-001",
			UptimeS:    300,
			LightLevel: 2048,
			Motion:     true,
			Locked:     true,
		},
	})
	if err != nil {
		t.Fatalf("AppendTelemetry: %v", err)
	}

	var (
		recvMs   int64
		uptimeMs sql.NullInt64
		light    int
		motion   int
		locked   int
		led      int
	)
	err = conn.QueryRowContext(context.Background(), `
SELECT received_at_ms, uptime_ms, light_level, motion, locked, led
FROM telemetry_samples WHERE module_id = ?`, "door-001",
	).Scan(&recvMs, &uptimeMs, &light, &motion, &locked, &led)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if recvMs != now.UnixMilli() {
		t.Errorf("expected received_at_ms=%d, got %d", now.UnixMilli(), recvMs)
	}
	if !uptimeMs.Valid || uptimeMs.Int64 != 300000 {
		t.Errorf("expected uptime_ms=300000, got %v", uptimeMs)
	}
	if light != 2048 || motion != 1 || locked != 1 || led != 0 {
		t.Errorf("unexpected row light=%d motion=%d locked=%d led=%d", light, motion, locked, led)
	}
}

func TestTelemetryStore_AppendTelemetry_EmptyModuleIgnored(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ts := sqlitestore.NewTelemetryStore(conn, w)

	if err := ts.AppendTelemetry(context.Background(), store.TelemetryRecord{}); err != nil {
		t.Fatalf("AppendTelemetry: %v", err)
	}

	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM telemetry_samples`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no rows, got %d", count)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// PruneOlderThan
// ═══════════════════════════════════════════════════════════════════════════

func TestTelemetryStore_PruneOlderThan(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ts := sqlitestore.NewTelemetryStore(conn, w)
	ctx := context.Background()

	now := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	for _, age := range []int{-40, -31, -1, 0} {
		if err := ts.AppendTelemetry(ctx, store.TelemetryRecord{
			ReceivedAt: now.AddDate(0, 0, age),
			Sample:     types.Telemetry{ModuleID: "door-001"},
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	deleted, err := ts.PruneOlderThan(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("PruneOlderThan: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}

	var left int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM telemetry_samples`).Scan(&left); err != nil {
		t.Fatalf("count: %v", err)
	}
	if left != 2 {
		t.Errorf("expected 2 rows left, got %d", left)
	}
}
