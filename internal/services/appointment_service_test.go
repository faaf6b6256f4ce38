package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tbourn/go-repair-scheduler/internal/domain"
)

func strp(s string) *string { return &s }

var ana = domain.AppointmentInput{
	ClientName:   "Ana",
	VehicleModel: "Toyota Corolla 2020",
	Date:         "2025-06-01",
	Time:         "10:00",
}

func TestNewAppointmentService_Defaults(t *testing.T) {
	st := newFakeStore()
	s := NewAppointmentService(st)
	if s.Store != st {
		t.Fatalf("store not set")
	}
	if s.Key != "@appointments" {
		t.Fatalf("Key default = @appointments, got %q", s.Key)
	}
	if _, ok := s.IDs.(*TimestampIDs); !ok {
		t.Fatalf("IDs default = *TimestampIDs, got %T", s.IDs)
	}
	if !s.FailOpenReads {
		t.Fatalf("FailOpenReads should default to true")
	}
}

func TestNewAppointmentService_Options(t *testing.T) {
	ids := &SequenceIDs{Prefix: "x"}
	s := NewAppointmentService(newFakeStore(),
		WithKey("@shop"),
		WithIDs(ids),
		WithClock(fixedClock),
		WithStrictReads(true),
	)
	if s.Key != "@shop" || s.IDs != IDGenerator(ids) || s.FailOpenReads {
		t.Fatalf("options not applied: key=%q ids=%T failOpen=%v", s.Key, s.IDs, s.FailOpenReads)
	}
	if got := s.Now(); !got.Equal(fixedClock()) {
		t.Fatalf("clock not applied: %v", got)
	}

	// Zero values keep the defaults.
	d := NewAppointmentService(newFakeStore(), WithKey(""), WithIDs(nil), WithClock(nil))
	if d.Key != DefaultStorageKey || d.IDs == nil || d.Now == nil {
		t.Fatalf("zero-value options must not clear defaults")
	}
}

// Scenario from the shop's daily flow: empty → create → duplicate check →
// reschedule → delete.
func TestAppointmentService_Scenario(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	list, err := s.ListAll(ctx)
	if err != nil || list == nil || len(list) != 0 {
		t.Fatalf("ListAll on empty store = (%v, %v); want ([], nil)", list, err)
	}

	created, err := s.Create(ctx, ana)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected assigned id")
	}
	if !created.CreatedAt.Equal(fixedNow) {
		t.Fatalf("CreatedAt = %v; want %v", created.CreatedAt, fixedNow)
	}

	list, _ = s.ListAll(ctx)
	if len(list) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(list))
	}

	if !s.CheckDuplicate(ctx, "2025-06-01", "toyota corolla 2020", "") {
		t.Fatalf("expected duplicate for case-insensitive vehicle on same date")
	}

	updated, err := s.Update(ctx, created.ID, domain.AppointmentPatch{Time: strp("11:00")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Time != "11:00" || updated.ClientName != "Ana" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, _ = s.ListAll(ctx)
	if len(list) != 0 {
		t.Fatalf("expected empty list after delete, got %+v", list)
	}
}

func TestCreate_AddsExactlyOneMatchingRecord_WithUniqueIDs(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	ids := map[string]bool{}
	for i := 0; i < 5; i++ {
		in := ana
		in.Date = fmt.Sprintf("2025-06-%02d", i+1)
		in.Description = fmt.Sprintf("visit %d", i)

		before, _ := s.ListAll(ctx)
		a, err := s.Create(ctx, in)
		if err != nil {
			t.Fatalf("Create #%d: %v", i, err)
		}
		after, _ := s.ListAll(ctx)
		if len(after) != len(before)+1 {
			t.Fatalf("expected one new record, before=%d after=%d", len(before), len(after))
		}
		if ids[a.ID] {
			t.Fatalf("id %q reused", a.ID)
		}
		ids[a.ID] = true

		got := after[len(after)-1]
		if got.Input() != in || got.ID != a.ID {
			t.Fatalf("stored record %+v does not match input %+v", got, in)
		}
	}
}

func TestCreate_RetriesWhenGeneratorCollides(t *testing.T) {
	s, st := newTestService()
	st.data[s.Key] = `[{"id":"a1","clientName":"X","vehicleModel":"Y","date":"2025-01-01","time":"10:00","createdAt":"2025-01-01T00:00:00Z"}]`

	a, err := s.Create(context.Background(), ana)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.ID != "a2" {
		t.Fatalf("expected generator to skip taken id a1, got %q", a.ID)
	}
}

type constIDs string

func (c constIDs) NewID() string { return string(c) }

func TestCreate_IDExhausted(t *testing.T) {
	s, st := newTestService()
	s.IDs = constIDs("same")
	ctx := context.Background()

	if _, err := s.Create(ctx, ana); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	setsBefore := st.sets
	if _, err := s.Create(ctx, ana); !errors.Is(err, ErrIDExhausted) {
		t.Fatalf("expected ErrIDExhausted, got %v", err)
	}
	if st.sets != setsBefore {
		t.Fatalf("no write expected when id allocation fails")
	}
}

func TestCreate_WriteFailure_LeavesCollectionUnchanged(t *testing.T) {
	s, st := newTestService()
	ctx := context.Background()
	if _, err := s.Create(ctx, ana); err != nil {
		t.Fatalf("seed Create: %v", err)
	}
	before, _ := st.raw(s.Key)

	st.setErr = errors.New("disk full")
	_, err := s.Create(ctx, ana)
	var we *StorageWriteError
	if !errors.As(err, &we) {
		t.Fatalf("expected StorageWriteError, got %v", err)
	}
	if we.Op != "create" || we.Key != "@appointments" {
		t.Fatalf("unexpected error fields: %+v", we)
	}
	if after, _ := st.raw(s.Key); after != before {
		t.Fatalf("collection changed after failed write")
	}
}

func TestMutations_PropagateReadErrors_AndDoNotWrite(t *testing.T) {
	ctx := context.Background()
	mutations := map[string]func(*AppointmentService) error{
		"create": func(s *AppointmentService) error { _, err := s.Create(ctx, ana); return err },
		"update": func(s *AppointmentService) error {
			_, err := s.Update(ctx, "a1", domain.AppointmentPatch{Time: strp("12:00")})
			return err
		},
		"delete": func(s *AppointmentService) error { return s.Delete(ctx, "a1") },
	}
	for name, run := range mutations {
		t.Run(name, func(t *testing.T) {
			s, st := newTestService()
			st.data[s.Key] = "{not json"
			err := run(s)
			if !IsStorageRead(err) || !errors.Is(err, ErrCorruptPayload) {
				t.Fatalf("expected StorageReadError wrapping ErrCorruptPayload, got %v", err)
			}
			if st.sets != 0 {
				t.Fatalf("corrupt collection must not be overwritten")
			}
		})
	}
}

func TestUpdate_ChangesOnlySuppliedFields(t *testing.T) {
	s, st := newTestService()
	ctx := context.Background()
	in := ana
	in.Description = "brakes"
	a, _ := s.Create(ctx, in)
	other, _ := s.Create(ctx, domain.AppointmentInput{ClientName: "Bruno", VehicleModel: "Civic", Date: "2025-06-02", Time: "08:00"})
	otherBefore := *other

	s.Now = func() time.Time { return fixedNow.Add(time.Hour) }
	got, err := s.Update(ctx, a.ID, domain.AppointmentPatch{
		VehicleModel: strp("Toyota Yaris"),
		Description:  strp(""),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	want := *a
	want.VehicleModel = "Toyota Yaris"
	want.Description = ""
	if got.ID != want.ID || got.ClientName != want.ClientName || got.VehicleModel != want.VehicleModel ||
		got.Date != want.Date || got.Time != want.Time || got.Description != want.Description ||
		!got.CreatedAt.Equal(want.CreatedAt) {
		t.Fatalf("Update = %+v; want %+v", got, want)
	}

	stored, err := s.Get(ctx, other.ID)
	if err != nil {
		t.Fatalf("Get other: %v", err)
	}
	if stored.Input() != otherBefore.Input() || !stored.CreatedAt.Equal(otherBefore.CreatedAt) {
		t.Fatalf("unrelated record changed: %+v", stored)
	}
	if _, ok := st.raw(s.Key); !ok {
		t.Fatalf("expected collection to be stored")
	}
}

func TestUpdate_NotFound_LeavesCollectionUnchanged(t *testing.T) {
	s, st := newTestService()
	ctx := context.Background()
	_, _ = s.Create(ctx, ana)
	before, _ := st.raw(s.Key)
	setsBefore := st.sets

	_, err := s.Update(ctx, "missing", domain.AppointmentPatch{Time: strp("12:00")})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if after, _ := st.raw(s.Key); after != before || st.sets != setsBefore {
		t.Fatalf("collection must be unchanged on not-found update")
	}
}

func TestUpdate_WriteFailure(t *testing.T) {
	s, st := newTestService()
	ctx := context.Background()
	a, _ := s.Create(ctx, ana)
	st.setErr = errors.New("io")

	_, err := s.Update(ctx, a.ID, domain.AppointmentPatch{Time: strp("12:00")})
	if !IsStorageWrite(err) {
		t.Fatalf("expected StorageWriteError, got %v", err)
	}
	st.setErr = nil
	got, _ := s.Get(ctx, a.ID)
	if got.Time != "10:00" {
		t.Fatalf("failed update must not persist, time=%q", got.Time)
	}
}

func TestDelete_RemovesExactlyOne_OrNoOp(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	a1, _ := s.Create(ctx, ana)
	_, _ = s.Create(ctx, domain.AppointmentInput{ClientName: "Bruno", VehicleModel: "Civic", Date: "2025-06-02", Time: "08:00"})
	_, _ = s.Create(ctx, domain.AppointmentInput{ClientName: "Carla", VehicleModel: "Yaris", Date: "2025-06-03", Time: "08:00"})

	if err := s.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
	if list, _ := s.ListAll(ctx); len(list) != 3 {
		t.Fatalf("no-op delete removed records: %d left", len(list))
	}

	if err := s.Delete(ctx, a1.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, _ := s.ListAll(ctx)
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list))
	}
	for _, a := range list {
		if a.ID == a1.ID {
			t.Fatalf("deleted record still present")
		}
	}
}

func TestDelete_WriteFailure(t *testing.T) {
	s, st := newTestService()
	ctx := context.Background()
	a, _ := s.Create(ctx, ana)
	st.setErr = errors.New("io")
	if err := s.Delete(ctx, a.ID); !IsStorageWrite(err) {
		t.Fatalf("expected StorageWriteError, got %v", err)
	}
	st.setErr = nil
	if _, err := s.Get(ctx, a.ID); err != nil {
		t.Fatalf("record must survive failed delete: %v", err)
	}
}

func TestCheckDuplicate(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	a, _ := s.Create(ctx, ana)

	tests := []struct {
		name    string
		date    string
		vehicle string
		exclude string
		want    bool
	}{
		{"exact", "2025-06-01", "Toyota Corolla 2020", "", true},
		{"case and spaces", "2025-06-01", "  TOYOTA corolla 2020 ", "", true},
		{"other date", "2025-06-02", "Toyota Corolla 2020", "", false},
		{"other vehicle", "2025-06-01", "Toyota Yaris", "", false},
		{"excluding itself", "2025-06-01", "Toyota Corolla 2020", a.ID, false},
		{"excluding someone else", "2025-06-01", "Toyota Corolla 2020", "zzz", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.CheckDuplicate(ctx, tc.date, tc.vehicle, tc.exclude); got != tc.want {
				t.Fatalf("CheckDuplicate(%q, %q, %q) = %v; want %v", tc.date, tc.vehicle, tc.exclude, got, tc.want)
			}
		})
	}
}

func TestReads_FailOpen(t *testing.T) {
	s, st := newTestService()
	ctx := context.Background()
	_, _ = s.Create(ctx, ana)

	st.getErr = errors.New("unreachable")
	list, err := s.ListAll(ctx)
	if err != nil || len(list) != 0 || list == nil {
		t.Fatalf("fail-open ListAll = (%v, %v); want ([], nil)", list, err)
	}
	if s.CheckDuplicate(ctx, ana.Date, ana.VehicleModel, "") {
		t.Fatalf("CheckDuplicate must be false on read failure")
	}
	if _, err := s.Get(ctx, "a1"); !IsStorageRead(err) {
		t.Fatalf("Get must propagate read errors, got %v", err)
	}
}

func TestReads_Corrupt_FailOpen(t *testing.T) {
	s, st := newTestService()
	st.data[s.Key] = `{"id":"x"}`
	list, err := s.ListAll(context.Background())
	if err != nil || len(list) != 0 {
		t.Fatalf("corrupt payload should degrade to empty, got (%v, %v)", list, err)
	}
}

func TestReads_StrictMode(t *testing.T) {
	s, st := newTestService()
	s.FailOpenReads = false
	st.getErr = errors.New("unreachable")

	_, err := s.ListAll(context.Background())
	var re *StorageReadError
	if !errors.As(err, &re) || re.Op != "list" {
		t.Fatalf("expected StorageReadError(op=list), got %v", err)
	}
	// CheckDuplicate stays fail-open in strict mode.
	if s.CheckDuplicate(context.Background(), "2025-06-01", "x", "") {
		t.Fatalf("CheckDuplicate must be false on read failure")
	}
}

func TestGet(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	a, _ := s.Create(ctx, ana)

	got, err := s.Get(ctx, a.ID)
	if err != nil || got.ID != a.ID {
		t.Fatalf("Get = (%+v, %v)", got, err)
	}
	if _, err := s.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListSorted_OrdersAndFilters(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	seed := []domain.AppointmentInput{
		{ClientName: "Carla", VehicleModel: "Yaris", Date: "2025-06-03", Time: "08:00"},
		{ClientName: "Ana", VehicleModel: "Corolla", Date: "2025-06-01", Time: "14:00"},
		{ClientName: "Bruno", VehicleModel: "Civic", Date: "2025-06-01", Time: "09:30"},
		{ClientName: "Dora", VehicleModel: "Toyota Hilux", Date: "2025-06-02", Time: "10:00"},
	}
	for _, in := range seed {
		if _, err := s.Create(ctx, in); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	all, err := s.ListSorted(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("ListSorted: %v", err)
	}
	order := []string{}
	for _, a := range all {
		order = append(order, a.ClientName)
	}
	if fmt.Sprint(order) != "[Bruno Ana Dora Carla]" {
		t.Fatalf("unexpected order %v", order)
	}

	ranged, _ := s.ListSorted(ctx, ListFilter{From: "2025-06-02", To: "2025-06-02"})
	if len(ranged) != 1 || ranged[0].ClientName != "Dora" {
		t.Fatalf("date range filter = %+v", ranged)
	}

	q, _ := s.ListSorted(ctx, ListFilter{Query: "bru"})
	if len(q) != 1 || q[0].ClientName != "Bruno" {
		t.Fatalf("query filter = %+v", q)
	}
}

func TestSortAppointments_TieBreaks(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	list := []domain.Appointment{
		{ID: "b", Date: "2025-06-01", Time: "10:00", CreatedAt: t0},
		{ID: "c", Date: "2025-06-01", Time: "10:00", CreatedAt: t0.Add(-time.Minute)},
		{ID: "a", Date: "2025-06-01", Time: "10:00", CreatedAt: t0},
	}
	SortAppointments(list)
	if list[0].ID != "c" || list[1].ID != "a" || list[2].ID != "b" {
		t.Fatalf("unexpected order: %s %s %s", list[0].ID, list[1].ID, list[2].ID)
	}
}

func TestConcurrentCreates_DoNotLoseUpdates(t *testing.T) {
	st := newFakeStore()
	s := NewAppointmentService(st)
	s.IDs = UUIDIDs{}
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := ana
			in.Date = fmt.Sprintf("2025-07-%02d", i%28+1)
			if _, err := s.Create(ctx, in); err != nil {
				t.Errorf("Create: %v", err)
			}
		}(i)
	}
	wg.Wait()

	list, _ := s.ListAll(ctx)
	if len(list) != n {
		t.Fatalf("expected %d appointments, got %d", n, len(list))
	}
}
