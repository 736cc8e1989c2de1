package sqlite_test

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/store"
	sqlitestore "github.com/BrandonDHaskell/Portunus/controller/internal/portunus/store/sqlite"
)

// ═══════════════════════════════════════════════════════════════════════════
// RecordEvent: column values
// ═══════════════════════════════════════════════════════════════════════════

func TestAccessEventStore_RecordEvent_ColumnsCorrect(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	as := sqlitestore.NewAccessEventStore(conn, w)

	now := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	hash := sha256.Sum256([]byte{0x01, 0xA3, 0xB2, 0xC4})

	err := as.RecordEvent(context.Background(), store.AccessEventRecord{
		DecisionID: "dec-1",
		ModuleID:   "door-001",
		CardIDHash: hash[:],
		Granted:    true,
		Reason:     "card_allowed",
		DecidedAt:  now,
	})
	if err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	var (
		moduleID  string
		cardHash  []byte
		malformed int
		granted   int
		reason    string
		decidedMs int64
	)
	err = conn.QueryRowContext(context.Background(), `
SELECT module_id, card_id_hash, malformed, decision_granted, decision_reason, decided_at_ms
FROM access_events WHERE decision_id = ?`, "dec-1",
	).Scan(&moduleID, &cardHash, &malformed, &granted, &reason, &decidedMs)
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if moduleID != "door-001" {
		t.Errorf("expected module_id=door-001, got %q", moduleID)
	}
	if string(cardHash) != string(hash[:]) {
		t.Error("card_id_hash mismatch")
	}
	if malformed != 0 {
		t.Errorf("expected malformed=0, got %d", malformed)
	}
	if granted != 1 {
		t.Errorf("expected decision_granted=1, got %d", granted)
	}
	if reason != "card_allowed" {
		t.Errorf("expected decision_reason=card_allowed, got %q", reason)
	}
	if decidedMs != now.UnixMilli() {
		t.Errorf("expected decided_at_ms=%d, got %d", now.UnixMilli(), decidedMs)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// RecordEvent: malformed reads
// ═══════════════════════════════════════════════════════════════════════════

func TestAccessEventStore_RecordEvent_MalformedWithoutHash(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	as := sqlitestore.NewAccessEventStore(conn, w)

	err := as.RecordEvent(context.Background(), store.AccessEventRecord{
		DecisionID: "dec-m",
		ModuleID:   "door-001",
		CardIDHash: []byte{0x01}, // not a SHA-256, stored as NULL
		Malformed:  true,
		Reason:     "malformed_card",
	})
	if err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	var (
		cardHash  []byte
		malformed int
		granted   int
		decidedMs int64
	)
	err = conn.QueryRowContext(context.Background(), `
SELECT card_id_hash, malformed, decision_granted, decided_at_ms
FROM access_events WHERE decision_id = ?`, "dec-m",
	).Scan(&cardHash, &malformed, &granted, &decidedMs)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if cardHash != nil {
		t.Error("expected card_id_hash to be NULL")
	}
	if malformed != 1 {
		t.Errorf("expected malformed=1, got %d", malformed)
	}
	if granted != 0 {
		t.Errorf("expected decision_granted=0, got %d", granted)
	}
	if decidedMs == 0 {
		t.Error("expected decided_at_ms to default to now")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// RecordEvent: append-only
// ═══════════════════════════════════════════════════════════════════════════

func TestAccessEventStore_RecordEvent_AppendOnly(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	as := sqlitestore.NewAccessEventStore(conn, w)
	ctx := context.Background()

	now := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		err := as.RecordEvent(ctx, store.AccessEventRecord{
			DecisionID: id,
			ModuleID:   "door-001",
			Reason:     "card_not_allowed",
			DecidedAt:  now.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("RecordEvent %d: %v", i, err)
		}
	}

	var count int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM access_events`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 rows (append-only), got %d", count)
	}
}

func TestAccessEventStore_RecordEvent_DuplicateDecisionRejected(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	as := sqlitestore.NewAccessEventStore(conn, w)
	ctx := context.Background()

	rec := store.AccessEventRecord{DecisionID: "same", ModuleID: "door-001", Reason: "card_not_allowed"}
	if err := as.RecordEvent(ctx, rec); err != nil {
		t.Fatalf("first RecordEvent: %v", err)
	}
	if err := as.RecordEvent(ctx, rec); err == nil {
		t.Error("expected unique constraint error for a repeated decision id")
	}
}
