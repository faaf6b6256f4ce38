package export

import (
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/tbourn/go-repair-scheduler/internal/domain"
)

// ICSOptions controls calendar rendering.
type ICSOptions struct {
	// ProductID is the PRODID property.
	ProductID string
	// CalendarName is shown by calendar apps (X-WR-CALNAME).
	CalendarName string
	// Duration of each visit; <= 0 means one hour.
	Duration time.Duration
	// UIDDomain qualifies event UIDs (<id>@<domain>).
	UIDDomain string
}

const (
	defaultVisitDuration = time.Hour
	// Floating local time: no zone suffix, no TZID.
	icsLocalLayout = "20060102T150405"
)

// lineBreaks collapses CR and CRLF so the encoder escapes a single \n.
var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// NewCalendar builds the calendar for list with one VEVENT per appointment.
// Start times are floating local times, as booked. Records whose date or
// time does not parse are skipped.
func NewCalendar(list []domain.Appointment, opts ICSOptions) *ics.Calendar {
	if opts.Duration <= 0 {
		opts.Duration = defaultVisitDuration
	}
	if opts.ProductID == "" {
		opts.ProductID = "-//go-repair-scheduler//appointments//EN"
	}
	if opts.UIDDomain == "" {
		opts.UIDDomain = "repair-scheduler"
	}

	cal := ics.NewCalendar()
	cal.SetProductId(opts.ProductID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ics.MethodPublish)
	if opts.CalendarName != "" {
		cal.SetXWRCalName(opts.CalendarName)
	}

	for _, a := range list {
		start, ok := a.StartsAt(time.UTC)
		if !ok {
			continue
		}
		ev := cal.AddEvent(a.ID + "@" + opts.UIDDomain)
		ev.SetDtStampTime(a.CreatedAt)
		ev.SetProperty(ics.ComponentPropertyDtStart, start.Format(icsLocalLayout))
		ev.SetProperty(ics.ComponentPropertyDtEnd, start.Add(opts.Duration).Format(icsLocalLayout))
		ev.SetSummary(lineBreaks.Replace(a.VehicleModel + " - " + a.ClientName))
		if a.Description != "" {
			ev.SetDescription(lineBreaks.Replace(a.Description))
		}
	}
	return cal
}

// WriteICS writes list as an iCalendar document with CRLF line endings.
func WriteICS(w io.Writer, list []domain.Appointment, opts ICSOptions) error {
	return NewCalendar(list, opts).SerializeTo(w, ics.WithNewLineWindows)
}
