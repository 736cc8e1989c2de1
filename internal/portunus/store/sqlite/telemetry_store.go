package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/BrandonDHaskell/Portunus/controller/internal/db"
	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/store"
)

type TelemetryStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewTelemetryStore(db *sql.DB, writer *dbpkg.Worker) *TelemetryStore {
	return &TelemetryStore{db: db, writer: writer}
}

func (s *TelemetryStore) AppendTelemetry(ctx context.Context, rec store.TelemetryRecord) error {
	moduleID := strings.TrimSpace(rec.Sample.ModuleID)
	if moduleID == "" {
		return nil
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}
	recvMs := rec.ReceivedAt.UTC().UnixMilli()

	var uptimeMs any
	if rec.Sample.UptimeS != 0 {
		uptimeMs = int64(rec.Sample.UptimeS) * 1000
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO telemetry_samples(
  module_id, received_at_ms, uptime_ms, light_level, motion, locked, led
) VALUES (?, ?, ?, ?, ?, ?, ?);
`, moduleID, recvMs, uptimeMs, rec.Sample.LightLevel,
			boolInt(rec.Sample.Motion), boolInt(rec.Sample.Locked), boolInt(rec.Sample.LED)); err != nil {
			return fmt.Errorf("AppendTelemetry insert: %w", err)
		}
		return nil
	})
}

// PruneOlderThan deletes samples with received_at_ms before cutoff and
// returns the number of rows deleted.  Uses idx_telemetry_time.
func (s *TelemetryStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM telemetry_samples
WHERE received_at_ms < ?;
`, cutoffMs)
		if err != nil {
			return fmt.Errorf("PruneOlderThan: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}
