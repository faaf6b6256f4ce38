package repo

import (
	"context"
	"time"

	bolt "go.etcd.io/bbolt"
)

// defaultBoltBucket holds every blob written by BoltStore.
const defaultBoltBucket = "blobs"

// BoltStore keeps blobs in a single bbolt bucket. Each Set runs in its own
// read-write transaction, so a failed write is rolled back as a whole.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
}

// OpenBolt opens (or creates) the bbolt file at path and ensures the bucket
// exists. The file lock is awaited for at most one second.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	bucket := []byte(defaultBoltBucket)
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db, bucket: bucket}, nil
}

// Get returns the value stored under key.
func (s *BoltStore) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		// v is only valid inside the transaction; string() copies it.
		value, ok = string(v), true
		return nil
	})
	return value, ok, err
}

// Set replaces the value stored under key.
func (s *BoltStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), []byte(value))
	})
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
