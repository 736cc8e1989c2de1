// Package boltdb keeps small pieces of controller state that must survive
// a restart, such as the last remote LED override.
package boltdb

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/store"
)

var (
	bucketOverride = []byte("override")
	keyLED         = []byte("led")
)

type ledRecord struct {
	On   bool  `cbor:"1,keyasint"`
	AtMs int64 `cbor:"2,keyasint"`
}

// StateStore implements store.OverrideStateStore on BoltDB.
type StateStore struct {
	db *bolt.DB
}

func Open(path string) (*StateStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketOverride)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &StateStore{db: db}, nil
}

func (s *StateStore) SaveLED(on bool, at time.Time) error {
	data, err := cbor.Marshal(ledRecord{On: on, AtMs: at.UTC().UnixMilli()})
	if err != nil {
		return fmt.Errorf("encode led state: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketOverride)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketOverride)
		}
		return b.Put(keyLED, data)
	})
}

func (s *StateStore) LoadLED() (bool, time.Time, error) {
	var rec ledRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketOverride)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketOverride)
		}
		data := b.Get(keyLED)
		if data == nil {
			return fmt.Errorf("led state: %w", store.ErrNotFound)
		}
		return cbor.Unmarshal(data, &rec)
	})
	if err != nil {
		return false, time.Time{}, err
	}
	return rec.On, time.UnixMilli(rec.AtMs).UTC(), nil
}

func (s *StateStore) Close() error {
	return s.db.Close()
}
