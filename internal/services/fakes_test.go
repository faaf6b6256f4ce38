package services

import (
	"context"
	"sync"
	"time"
)

// ----- Fake blob store -----

type fakeStore struct {
	mu   sync.Mutex
	data map[string]string

	getErr error
	setErr error

	sets int
}

func newFakeStore() *fakeStore { return &fakeStore{data: map[string]string{}} }

func (f *fakeStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeStore) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

func (f *fakeStore) raw(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

// ----- Fixed clock -----

var fixedNow = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// newTestService returns a service over a fresh fake store with
// deterministic ids ("a1", "a2", ...) and a fixed clock.
func newTestService() (*AppointmentService, *fakeStore) {
	st := newFakeStore()
	s := NewAppointmentService(st, WithIDs(&SequenceIDs{Prefix: "a"}), WithClock(fixedClock))
	return s, st
}
