package store

import (
	"context"
	"time"
)

// AccessEventRecord captures a single access decision for the audit log.
// The raw credential is never stored; CardIDHash is the SHA-256 of the
// bytes the reader returned.
type AccessEventRecord struct {
	DecisionID string
	ModuleID   string
	CardIDHash []byte
	Malformed  bool
	Granted    bool
	Reason     string
	DecidedAt  time.Time
}

// AccessEventStore persists access decisions as an append-only audit log.
type AccessEventStore interface {
	RecordEvent(ctx context.Context, rec AccessEventRecord) error
}
