// Package services defines the business logic of the repair-shop scheduler.
// This file centralizes the service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Appointment-related errors.
var (
	// ErrNotFound indicates that no appointment with the requested id exists.
	ErrNotFound = errors.New("appointment not found")

	// ErrDuplicate is returned when another appointment already books the
	// same vehicle model on the same date.
	ErrDuplicate = errors.New("an appointment for this vehicle already exists on that date")

	// ErrCorruptPayload marks a stored collection that cannot be decoded.
	// It is always wrapped in a StorageReadError.
	ErrCorruptPayload = errors.New("stored appointments payload is corrupt")

	// ErrIDExhausted is returned when the id generator keeps producing ids
	// that already exist in the collection.
	ErrIDExhausted = errors.New("could not allocate a unique appointment id")
)

// StorageReadError reports that the backing blob could not be read or
// decoded. Op names the service operation; Key is the blob key.
type StorageReadError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageReadError) Error() string {
	return fmt.Sprintf("%s: read %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageReadError) Unwrap() error { return e.Err }

// StorageWriteError reports that the backing blob could not be written. The
// stored collection is unchanged when this error is returned.
type StorageWriteError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("%s: write %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

// ValidationError lists the invalid fields of an appointment, keyed by JSON
// field name, with a human-readable message for each.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid appointment: " + strings.Join(parts, "; ")
}

// IsStorageRead reports whether err is (or wraps) a StorageReadError.
func IsStorageRead(err error) bool {
	var re *StorageReadError
	return errors.As(err, &re)
}

// IsStorageWrite reports whether err is (or wraps) a StorageWriteError.
func IsStorageWrite(err error) bool {
	var we *StorageWriteError
	return errors.As(err, &we)
}
