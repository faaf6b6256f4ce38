// Package services – AppointmentService
//
// This file implements AppointmentService, the persistence facade over the
// appointment collection. The whole collection lives as one serialized blob
// under a single well-known key of a BlobStore, so every operation reads the
// entire collection and every mutation writes the entire collection back.
//
// Read policy: ListAll and CheckDuplicate are fail-open by default. A read
// failure (or a corrupt payload) is logged and degrades to an empty
// collection / "not a duplicate". Mutations never degrade: they return the
// StorageReadError so that an unreadable collection is not overwritten.
//
// Writers are serialized through a mutex held across the read-modify-write
// cycle. This closes the lost-update race between concurrent requests within
// one process; several processes sharing a backend are not supported.
//
// Observability: all public methods are OpenTelemetry-instrumented and count
// outcomes in appointment_store_operations_total.
package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-repair-scheduler/internal/domain"
	"github.com/tbourn/go-repair-scheduler/internal/search"
)

// DefaultStorageKey is the blob key holding the appointment collection.
const DefaultStorageKey = "@appointments"

// maxIDAttempts bounds retries when the generator yields an id already in use.
const maxIDAttempts = 8

// BlobStore is the key-value capability the service persists through.
// Get reports ok == false for an absent key. Set must replace the value
// as a whole or not at all.
type BlobStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// AppointmentService provides CRUD and duplicate detection over the
// appointment collection.
type AppointmentService struct {
	// Store is the backing blob store.
	Store BlobStore
	// Key is the blob key of the collection.
	Key string
	// IDs synthesizes ids for new appointments.
	IDs IDGenerator
	// Now is the clock used for CreatedAt.
	Now func() time.Time
	// FailOpenReads makes ListAll swallow read errors and return an empty
	// collection. CheckDuplicate is fail-open regardless.
	FailOpenReads bool

	mu sync.Mutex
}

// Option customizes an AppointmentService at construction.
type Option func(*AppointmentService)

// WithKey stores the collection under key instead of DefaultStorageKey.
func WithKey(key string) Option {
	return func(s *AppointmentService) {
		if key != "" {
			s.Key = key
		}
	}
}

// WithIDs replaces the id generator.
func WithIDs(g IDGenerator) Option {
	return func(s *AppointmentService) {
		if g != nil {
			s.IDs = g
		}
	}
}

// WithClock replaces the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *AppointmentService) {
		if now != nil {
			s.Now = now
		}
	}
}

// WithStrictReads makes ListAll return read errors instead of an empty
// collection.
func WithStrictReads(strict bool) Option {
	return func(s *AppointmentService) { s.FailOpenReads = !strict }
}

// NewAppointmentService constructs a service over store. Without options it
// uses the default key, timestamp ids, the wall clock, and fail-open reads.
func NewAppointmentService(store BlobStore, opts ...Option) *AppointmentService {
	s := &AppointmentService{
		Store:         store,
		Key:           DefaultStorageKey,
		IDs:           &TimestampIDs{},
		Now:           time.Now,
		FailOpenReads: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListAll returns every stored appointment in storage order. An absent key
// yields an empty, non-nil slice.
func (s *AppointmentService) ListAll(ctx context.Context) ([]domain.Appointment, error) {
	ctx, span := s.start(ctx, "ListAll")
	defer span.End()

	list, err := s.load(ctx, "list")
	if err != nil {
		if s.FailOpenReads {
			s.degraded(ctx, span, "list", err)
			return []domain.Appointment{}, nil
		}
		s.failed(span, "list", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("appointments.count", len(list)))
	observe("list", resultOK)
	return list, nil
}

// Get returns the appointment with id, or ErrNotFound. Read failures are
// returned as StorageReadError.
func (s *AppointmentService) Get(ctx context.Context, id string) (*domain.Appointment, error) {
	ctx, span := s.start(ctx, "Get", attribute.String("appointment.id", id))
	defer span.End()

	list, err := s.load(ctx, "get")
	if err != nil {
		s.failed(span, "get", err)
		return nil, err
	}
	if i := indexOf(list, id); i >= 0 {
		observe("get", resultOK)
		a := list[i]
		return &a, nil
	}
	observe("get", resultNotFound)
	return nil, ErrNotFound
}

// Create appends a new appointment built from in and persists the
// collection. The returned record carries the assigned ID and CreatedAt.
// Input is stored as given; validation is the caller's concern.
func (s *AppointmentService) Create(ctx context.Context, in domain.AppointmentInput) (*domain.Appointment, error) {
	ctx, span := s.start(ctx, "Create")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx, "create")
	if err != nil {
		s.failed(span, "create", err)
		return nil, err
	}

	id, err := s.newID(list)
	if err != nil {
		s.failed(span, "create", err)
		return nil, err
	}
	a := domain.Appointment{
		ID:           id,
		ClientName:   in.ClientName,
		VehicleModel: in.VehicleModel,
		Date:         in.Date,
		Time:         in.Time,
		Description:  in.Description,
		CreatedAt:    s.now(),
	}
	span.SetAttributes(attribute.String("appointment.id", id))

	if err := s.save(ctx, "create", append(list, a)); err != nil {
		s.failed(span, "create", err)
		return nil, err
	}
	observe("create", resultOK)
	return &a, nil
}

// Update merges the supplied fields of patch into the appointment with id
// and persists the collection. Absent fields keep their values; ID and
// CreatedAt never change. A missing id yields ErrNotFound and no write.
func (s *AppointmentService) Update(ctx context.Context, id string, patch domain.AppointmentPatch) (*domain.Appointment, error) {
	ctx, span := s.start(ctx, "Update", attribute.String("appointment.id", id))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx, "update")
	if err != nil {
		s.failed(span, "update", err)
		return nil, err
	}
	i := indexOf(list, id)
	if i < 0 {
		observe("update", resultNotFound)
		return nil, ErrNotFound
	}

	updated := patch.ApplyTo(list[i])
	next := make([]domain.Appointment, len(list))
	copy(next, list)
	next[i] = updated

	if err := s.save(ctx, "update", next); err != nil {
		s.failed(span, "update", err)
		return nil, err
	}
	observe("update", resultOK)
	return &updated, nil
}

// Delete removes the appointment with id. Deleting an absent id is not an
// error; the collection is rewritten unchanged.
func (s *AppointmentService) Delete(ctx context.Context, id string) error {
	ctx, span := s.start(ctx, "Delete", attribute.String("appointment.id", id))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx, "delete")
	if err != nil {
		s.failed(span, "delete", err)
		return err
	}
	kept := make([]domain.Appointment, 0, len(list))
	for _, a := range list {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	span.SetAttributes(attribute.Bool("appointment.existed", len(kept) != len(list)))

	if err := s.save(ctx, "delete", kept); err != nil {
		s.failed(span, "delete", err)
		return err
	}
	observe("delete", resultOK)
	return nil
}

// CheckDuplicate reports whether an appointment other than excludeID books
// vehicleModel on date. Vehicle models compare trimmed and case-folded;
// dates compare exactly. An empty excludeID excludes nothing. Read failures
// yield false.
func (s *AppointmentService) CheckDuplicate(ctx context.Context, date, vehicleModel, excludeID string) bool {
	ctx, span := s.start(ctx, "CheckDuplicate",
		attribute.String("appointment.date", date),
		attribute.String("appointment.exclude_id", excludeID),
	)
	defer span.End()

	list, err := s.load(ctx, "check_duplicate")
	if err != nil {
		s.degraded(ctx, span, "check_duplicate", err)
		return false
	}
	want := VehicleKey(vehicleModel)
	for _, a := range list {
		if excludeID != "" && a.ID == excludeID {
			continue
		}
		if a.Date == date && VehicleKey(a.VehicleModel) == want {
			observe("check_duplicate", resultOK)
			return true
		}
	}
	observe("check_duplicate", resultOK)
	return false
}

// ListFilter narrows ListSorted. Empty fields do not filter.
type ListFilter struct {
	// From and To bound Date inclusively (YYYY-MM-DD).
	From, To string
	// Query is free text matched against client, vehicle and description.
	Query string
}

// ListSorted returns ListAll ordered for display and narrowed by f.
func (s *AppointmentService) ListSorted(ctx context.Context, f ListFilter) ([]domain.Appointment, error) {
	list, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Appointment, 0, len(list))
	for _, a := range list {
		if f.From != "" && a.Date < f.From {
			continue
		}
		if f.To != "" && a.Date > f.To {
			continue
		}
		out = append(out, a)
	}
	SortAppointments(out)
	if f.Query != "" {
		out = search.Filter(out, f.Query)
	}
	return out, nil
}

// SortAppointments orders list by date and time, then creation time and id.
func SortAppointments(list []domain.Appointment) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// ---- internals ----

// load reads and decodes the collection, wrapping failures in
// StorageReadError.
func (s *AppointmentService) load(ctx context.Context, op string) ([]domain.Appointment, error) {
	raw, ok, err := s.Store.Get(ctx, s.Key)
	if err != nil {
		return nil, &StorageReadError{Op: op, Key: s.Key, Err: err}
	}
	if !ok {
		return []domain.Appointment{}, nil
	}
	list, err := DecodeAppointments(raw)
	if err != nil {
		return nil, &StorageReadError{Op: op, Key: s.Key, Err: err}
	}
	return list, nil
}

// save encodes and writes the collection, wrapping failures in
// StorageWriteError.
func (s *AppointmentService) save(ctx context.Context, op string, list []domain.Appointment) error {
	raw, err := EncodeAppointments(list)
	if err != nil {
		return &StorageWriteError{Op: op, Key: s.Key, Err: err}
	}
	if err := s.Store.Set(ctx, s.Key, raw); err != nil {
		return &StorageWriteError{Op: op, Key: s.Key, Err: err}
	}
	return nil
}

// newID asks the generator for an id not yet present in list.
func (s *AppointmentService) newID(list []domain.Appointment) (string, error) {
	gen := s.IDs
	if gen == nil {
		gen = &TimestampIDs{Now: s.Now}
	}
	for i := 0; i < maxIDAttempts; i++ {
		id := gen.NewID()
		if id != "" && indexOf(list, id) < 0 {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}

// now returns the creation timestamp at millisecond precision in UTC.
func (s *AppointmentService) now() time.Time {
	clock := s.Now
	if clock == nil {
		clock = time.Now
	}
	return clock().UTC().Truncate(time.Millisecond)
}

func (s *AppointmentService) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("storage.key", s.Key))
	return otel.Tracer("services/AppointmentService").Start(ctx, name, trace.WithAttributes(attrs...))
}

// degraded records a swallowed read error.
func (s *AppointmentService) degraded(ctx context.Context, span trace.Span, op string, err error) {
	span.RecordError(err)
	span.SetAttributes(attribute.Bool("storage.degraded", true))
	observe(op, resultDegraded)
	loggerFrom(ctx).Warn().
		Err(err).
		Str("op", op).
		Str("key", s.Key).
		Bool("corrupt", errors.Is(err, ErrCorruptPayload)).
		Msg("appointment store read failed; serving empty collection")
}

func (s *AppointmentService) failed(span trace.Span, op string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	observe(op, resultError)
}

func indexOf(list []domain.Appointment, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// loggerFrom returns the logger attached to ctx, or the global logger.
func loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
