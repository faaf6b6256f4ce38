// Package services – BookingService
//
// This file implements BookingService, the use-case layer in front of
// AppointmentService. It applies the booking form rules (required fields,
// minimum client name length, future date and time) and the one
// cross-record rule: a vehicle model may be booked at most once per date.
//
// The duplicate rule is checked before the write and is not atomic with it;
// AppointmentService serializes writers, but a check and the following write
// are separate steps.
package services

import (
	"context"
	"time"

	"github.com/tbourn/go-repair-scheduler/internal/domain"
)

// BookingService validates and books appointments.
type BookingService struct {
	Appointments *AppointmentService
	Rules        ValidationRules
	// Now is the clock used for the future check.
	Now func() time.Time
}

// NewBookingService wires a BookingService with the default form rules.
func NewBookingService(appts *AppointmentService) *BookingService {
	return &BookingService{
		Appointments: appts,
		Rules:        DefaultValidationRules(),
		Now:          time.Now,
	}
}

// Book validates in, rejects duplicates, and creates the appointment.
//
// Errors: *ValidationError, ErrDuplicate, *StorageReadError,
// *StorageWriteError.
func (b *BookingService) Book(ctx context.Context, in domain.AppointmentInput) (*domain.Appointment, error) {
	norm, err := ValidateInput(in, b.now(), b.Rules)
	if err != nil {
		return nil, err
	}
	if b.Appointments.CheckDuplicate(ctx, norm.Date, norm.VehicleModel, "") {
		return nil, ErrDuplicate
	}
	return b.Appointments.Create(ctx, norm)
}

// Reschedule applies patch to the appointment with id. The merged record is
// validated as a whole, and the duplicate rule excludes the record itself.
//
// Errors: ErrNotFound, *ValidationError, ErrDuplicate, *StorageReadError,
// *StorageWriteError.
func (b *BookingService) Reschedule(ctx context.Context, id string, patch domain.AppointmentPatch) (*domain.Appointment, error) {
	cur, err := b.Appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return cur, nil
	}

	merged := patch.ApplyTo(*cur)
	norm, err := ValidateInput(merged.Input(), b.now(), b.Rules)
	if err != nil {
		return nil, err
	}
	if b.Appointments.CheckDuplicate(ctx, norm.Date, norm.VehicleModel, id) {
		return nil, ErrDuplicate
	}
	return b.Appointments.Update(ctx, id, normalizedPatch(patch, norm))
}

// Cancel deletes the appointment with id; cancelling an unknown id succeeds.
func (b *BookingService) Cancel(ctx context.Context, id string) error {
	return b.Appointments.Delete(ctx, id)
}

// normalizedPatch keeps the shape of p (which fields are present) but takes
// the values from the normalized input n.
func normalizedPatch(p domain.AppointmentPatch, n domain.AppointmentInput) domain.AppointmentPatch {
	out := domain.AppointmentPatch{}
	if p.ClientName != nil {
		out.ClientName = &n.ClientName
	}
	if p.VehicleModel != nil {
		out.VehicleModel = &n.VehicleModel
	}
	if p.Date != nil {
		out.Date = &n.Date
	}
	if p.Time != nil {
		out.Time = &n.Time
	}
	if p.Description != nil {
		out.Description = &n.Description
	}
	return out
}

func (b *BookingService) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}
