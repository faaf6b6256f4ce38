// Package domain defines the data model of the repair-shop scheduler: the
// Appointment record kept in the blob collection, the inputs used to create
// and patch it, and the GORM models backing the SQL key-value store.
package domain

import (
	"time"
)

// Appointment is one scheduled visit of a client's vehicle to the shop.
//
// Fields:
//   - ID: unique token assigned at creation; never changes afterwards.
//   - ClientName / VehicleModel: human-entered, non-empty.
//   - Date: calendar day as "YYYY-MM-DD".
//   - Time: time of day as "HH:MM" (24h).
//   - Description: optional free text.
//   - CreatedAt: set once on creation.
//
// JSON keys match the persisted blob layout, so records written by older
// clients decode unchanged.
type Appointment struct {
	ID           string    `json:"id"           example:"1717236000000"`
	ClientName   string    `json:"clientName"   example:"Ana"`
	VehicleModel string    `json:"vehicleModel" example:"Toyota Corolla 2020"`
	Date         string    `json:"date"         example:"2025-06-01"`
	Time         string    `json:"time"         example:"10:00"`
	Description  string    `json:"description"  example:"Oil change"`
	CreatedAt    time.Time `json:"createdAt"`
}

// StartsAt combines Date and Time in loc. ok is false when either part does
// not parse.
func (a Appointment) StartsAt(loc *time.Location) (t time.Time, ok bool) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, a.Date+" "+a.Time, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Layouts of the persisted Date and Time fields.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// AppointmentInput is the user-supplied part of a new appointment.
type AppointmentInput struct {
	ClientName   string `json:"clientName"   example:"Ana"`
	VehicleModel string `json:"vehicleModel" example:"Toyota Corolla 2020"`
	Date         string `json:"date"         example:"2025-06-01"`
	Time         string `json:"time"         example:"10:00"`
	Description  string `json:"description"  example:"Brake pads"`
}

// AppointmentPatch carries a partial update. Nil fields are left untouched.
type AppointmentPatch struct {
	ClientName   *string `json:"clientName,omitempty"`
	VehicleModel *string `json:"vehicleModel,omitempty"`
	Date         *string `json:"date,omitempty"`
	Time         *string `json:"time,omitempty"`
	Description  *string `json:"description,omitempty"`
}

// Empty reports whether the patch supplies no field at all.
func (p AppointmentPatch) Empty() bool {
	return p.ClientName == nil && p.VehicleModel == nil && p.Date == nil &&
		p.Time == nil && p.Description == nil
}

// ApplyTo returns a copy of a with every supplied field replaced.
// ID and CreatedAt are never touched.
func (p AppointmentPatch) ApplyTo(a Appointment) Appointment {
	if p.ClientName != nil {
		a.ClientName = *p.ClientName
	}
	if p.VehicleModel != nil {
		a.VehicleModel = *p.VehicleModel
	}
	if p.Date != nil {
		a.Date = *p.Date
	}
	if p.Time != nil {
		a.Time = *p.Time
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	return a
}

// Input projects the user-editable fields of a.
func (a Appointment) Input() AppointmentInput {
	return AppointmentInput{
		ClientName:   a.ClientName,
		VehicleModel: a.VehicleModel,
		Date:         a.Date,
		Time:         a.Time,
		Description:  a.Description,
	}
}

// KVEntry is one slot of the SQL-backed blob store: a well-known key and the
// serialized value stored under it.
type KVEntry struct {
	Key       string    `gorm:"type:varchar(191);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for KVEntry.
func (KVEntry) TableName() string { return "kv_store" }
