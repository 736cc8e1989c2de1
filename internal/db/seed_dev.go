package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DevSeedLabel marks credential rows written by SeedDev.
const DevSeedLabel = "dev-seed"

// devCredential is the example tag UID shipped with the board firmware.
var devCredential = []byte{0x01, 0xA3, 0xB2, 0xC4}

// SeedDev makes sure the example tag is authorized in dev databases.
func SeedDev(ctx context.Context, db *sql.DB) error {
	now := time.Now().UTC().UnixMilli()

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO credentials(uid, label, enabled, created_at_ms)
VALUES (?, ?, 1, ?);`, devCredential, DevSeedLabel, now); err != nil {
		return fmt.Errorf("seed credentials: %w", err)
	}
	return nil
}

// PurgeDevSeed removes rows left by SeedDev, so a database first opened in
// dev does not carry the example tag into other environments. Returns the
// number of rows removed.
func PurgeDevSeed(ctx context.Context, db *sql.DB) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM credentials WHERE label = ?;`, DevSeedLabel)
	if err != nil {
		return 0, fmt.Errorf("purge dev seed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge dev seed: %w", err)
	}
	return n, nil
}
