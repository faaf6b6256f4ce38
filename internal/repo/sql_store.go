// Package repo implements the persistence layer. This file provides SQLStore,
// the blob store backed by the kv_store table through GORM.
//
// Each key maps to exactly one row; Set replaces the whole value in a single
// upsert statement, so a failed write leaves the previous value in place.
//
// Error semantics:
//   - A missing key is not an error: Get reports ok == false.
//   - DB errors (missing table, connectivity, cancelled context) are
//     propagated unchanged.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-repair-scheduler/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across callers.
var ErrNotFound = gorm.ErrRecordNotFound

// SQLStore keeps blobs in the kv_store table.
type SQLStore struct {
	DB *gorm.DB
}

// NewSQLStore wraps db. The kv_store table must exist (see AutoMigrate).
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{DB: db}
}

// Get returns the value stored under key.
func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var e domain.KVEntry
	err := s.DB.WithContext(ctx).Where("key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return e.Value, true, nil
}

// Set stores value under key, inserting or replacing the row.
func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	e := domain.KVEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&e).Error
}

// Stat returns the byte length of the value under key and the time it was
// last written. When the key is absent, size is 0 and updatedAt is nil.
// Readiness probes use it to reach the table without loading the blob.
func (s *SQLStore) Stat(ctx context.Context, key string) (size int64, updatedAt *time.Time, err error) {
	var row struct {
		Size      int64
		UpdatedAt time.Time
	}
	res := s.DB.WithContext(ctx).
		Model(&domain.KVEntry{}).
		Select("length(value) AS size, updated_at").
		Where("key = ?", key).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return 0, nil, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, nil, nil
	}
	return row.Size, &row.UpdatedAt, nil
}
